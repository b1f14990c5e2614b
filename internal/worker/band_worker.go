package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/config"
	"github.com/linguaprep/linguaprep-backend/internal/model"
	"github.com/linguaprep/linguaprep-backend/internal/repository"
)

const BandPollTimeout = 1 * time.Second

// BandWorker consumes band_results_queue, where the external grading
// side delivers writing/speaking band scores for submitted attempts.
// Bands are stored verbatim; nothing is computed locally.
type BandWorker struct {
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewBandWorker creates a new BandWorker.
func NewBandWorker(attemptRepo *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *BandWorker {
	return &BandWorker{
		attemptRepo: attemptRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "band_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *BandWorker) Start(ctx context.Context) {
	w.log.Info().Msg("BandWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("BandWorker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("BandWorker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *BandWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, BandPollTimeout, config.WorkerKey.BandResultsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var res model.BandResult
	if err := json.Unmarshal([]byte(result[1]), &res); err != nil {
		w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed band result")
		return
	}

	if err := w.apply(ctx, &res); err != nil {
		w.log.Error().Err(err).
			Str("attempt_id", res.AttemptID.String()).
			Msg("Band persist error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.BandResultsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *BandWorker) apply(ctx context.Context, res *model.BandResult) error {
	breakdown, err := json.Marshal(res.Skills)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	if err := w.attemptRepo.SetBands(ctx, res.AttemptID, float64(res.OverallBand), breakdown); err != nil {
		return err
	}

	w.log.Info().
		Str("attempt_id", res.AttemptID.String()).
		Str("overall_band", res.OverallBand.String()).
		Int("skills", len(res.Skills)).
		Msg("Band scores stored")
	return nil
}

func (w *BandWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.BandResultsQueue).Result()
		if err != nil {
			break
		}

		var res model.BandResult
		if err := json.Unmarshal([]byte(result), &res); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.apply(ctx, &res); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.BandResultsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained pending band results")
	}
}
