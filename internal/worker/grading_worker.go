package worker

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/config"
	"github.com/linguaprep/linguaprep-backend/internal/model"
	"github.com/linguaprep/linguaprep-backend/internal/repository"
	"github.com/linguaprep/linguaprep-backend/internal/service"
)

const GradePollTimeout = 1 * time.Second

// GradingWorker consumes grade_attempts_queue and grades each finished
// attempt against the cached answer key. Objective questions get a
// per-answer verdict and an attempt-level correct count; essay and
// speaking answers stay ungraded (NULL) for manual review.
type GradingWorker struct {
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
	papers      *service.PaperService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewGradingWorker creates a new GradingWorker.
func NewGradingWorker(
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	papers *service.PaperService,
	rdb *redis.Client,
	log zerolog.Logger,
) *GradingWorker {
	return &GradingWorker{
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		papers:      papers,
		rdb:         rdb,
		log:         log.With().Str("component", "grading_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *GradingWorker) Start(ctx context.Context) {
	w.log.Info().Msg("GradingWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("GradingWorker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("GradingWorker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *GradingWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, GradePollTimeout, config.WorkerKey.GradeAttemptsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var job model.GradeJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed job")
		return
	}

	if err := w.grade(ctx, &job); err != nil {
		w.log.Error().Err(err).
			Str("attempt_id", job.AttemptID.String()).
			Msg("Grading error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.GradeAttemptsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *GradingWorker) grade(ctx context.Context, job *model.GradeJob) error {
	keys, err := w.papers.GetGradingKeys(ctx, job.ExamID)
	if err != nil {
		return err
	}

	records, err := w.answerRepo.ListByAttempt(ctx, job.AttemptID)
	if err != nil {
		return err
	}

	recordsByQ := make(map[string]*model.AnswerRecord, len(records))
	for i := range records {
		recordsByQ[records[i].QuestionID.String()] = &records[i]
	}

	correct := 0
	graded := 0
	for qid, key := range keys {
		verdict := judge(recordsByQ[qid.String()], key)
		if verdict == nil {
			continue // manual review, leave the row NULL
		}

		if err := w.answerRepo.SetGrade(ctx, job.AttemptID, qid, verdict); err != nil {
			return err
		}
		graded++
		if *verdict {
			correct++
		}
	}

	if err := w.attemptRepo.MarkGraded(ctx, job.AttemptID, correct); err != nil {
		return err
	}

	// The attempt is over; its Redis mirror has served its purpose.
	pipe := w.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.AttemptAnswersKey(job.AttemptID.String()))
	pipe.Del(ctx, config.CacheKey.AttemptStartKey(job.AttemptID.String()))
	_, _ = pipe.Exec(ctx)

	w.log.Info().
		Str("attempt_id", job.AttemptID.String()).
		Int("graded", graded).
		Int("correct", correct).
		Msg("Attempt graded")
	return nil
}

// judge compares one answer against its key. A key with neither option
// ids nor text is a manually reviewed question type; nil means no
// verdict. A missing or empty answer against an objective key is wrong.
func judge(rec *model.AnswerRecord, key model.GradingKey) *bool {
	if len(key.CorrectOptionIDs) == 0 && key.CorrectText == "" {
		return nil
	}

	verdict := false
	if rec != nil {
		if len(key.CorrectOptionIDs) > 0 {
			verdict = sameIDSet(rec.SelectedOptionIDs, key.CorrectOptionIDs)
		} else {
			given := strings.TrimSpace(rec.SelectedText)
			verdict = given != "" && strings.EqualFold(given, strings.TrimSpace(key.CorrectText))
		}
	}
	return &verdict
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func (w *GradingWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.GradeAttemptsQueue).Result()
		if err != nil {
			break
		}

		var job model.GradeJob
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.grade(ctx, &job); err != nil {
			w.log.Error().Err(err).Msg("Drain grading error")
			w.rdb.RPush(ctx, config.WorkerKey.GradeAttemptsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining jobs")
	}
}
