package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/linguaprep/linguaprep-backend/internal/config"
	"github.com/linguaprep/linguaprep-backend/internal/database"
	"github.com/linguaprep/linguaprep-backend/internal/logger"
	"github.com/linguaprep/linguaprep-backend/internal/repository"
	"github.com/linguaprep/linguaprep-backend/internal/service"
)

// publish-exam moves a draft exam to PUBLISHED and warms its Redis cache
// (paper, duration, grading keys) so candidates hit the fast lane from
// the first request.
func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: publish-exam <exam-id>")
		os.Exit(1)
	}

	examID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Printf("Error: invalid exam id %q\n", os.Args[1])
		os.Exit(1)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Logic ─────────────────────────────────────────────────────────
	paperRepo := repository.NewPaperRepository(pool)
	paperService := service.NewPaperService(paperRepo, rdb, log)

	if err := paperService.Publish(ctx, examID); err != nil {
		log.Fatal().Err(err).Msg("Failed to publish exam")
	}

	fmt.Printf("Success! Exam %s is now PUBLISHED and cached.\n", examID)
}
