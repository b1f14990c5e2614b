package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linguaprep/linguaprep-backend/internal/config"
	"github.com/linguaprep/linguaprep-backend/internal/database"
	"github.com/linguaprep/linguaprep-backend/internal/logger"
	"github.com/linguaprep/linguaprep-backend/internal/repository"
	"github.com/linguaprep/linguaprep-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	candidateRepo := repository.NewCandidateRepository(pool)
	authService := service.NewAuthService(cfg, rdb)
	candidateService := service.NewCandidateService(candidateRepo, authService)

	names := []string{
		"Alice Turner", "Bruno Costa", "Chen Wei", "Daria Ivanova", "Emre Demir",
		"Fatima Al-Sayed", "Gabriel Silva", "Hana Kim", "Igor Petrov", "Julia Nowak",
		"Kenji Tanaka", "Lucia Fernandez", "Marek Kovac", "Nadia Haddad", "Omar Farouk",
		"Priya Sharma", "Quang Nguyen", "Rosa Martinez", "Sven Larsson", "Thuy Tran",
		"Umberto Rossi", "Valeria Gomez", "Wanjiru Kamau", "Ximena Lopez", "Yusuf Ozturk",
	}

	fmt.Printf("=== Seeding %d Candidates ===\n", len(names))

	successCount := 0
	for i, name := range names {
		email := fmt.Sprintf("%s%d@example.test", strings.ToLower(strings.Fields(name)[0]), i+1)

		if _, err := candidateService.Register(ctx, email, name, "linguaprep"); err != nil {
			fmt.Printf("Error creating candidate %s (%s): %v\n", name, email, err)
			continue
		}

		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d candidates...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d candidates.\n", successCount, len(names))
}
