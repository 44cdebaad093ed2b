package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"plskit/adapters/postgres"
	"plskit/adapters/rng"
	"plskit/api"
	"plskit/app"
	"plskit/internal"
	"plskit/internal/config"
	"plskit/internal/errors"
	"plskit/ports"
)

func main() {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	repo, err := setupRepository(cfg, logger)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}

	svc := app.NewAnalysisService(repo, func(seed int64) ports.RNG {
		return rng.NewSeeded(seed)
	}, logger)

	server := api.NewServer(svc, cfg.Analysis.Defaults(), logger)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// setupRepository connects to PostgreSQL when a DATABASE_URL is configured.
// Without one the service runs with persistence disabled.
func setupRepository(cfg *config.Config, logger *internal.Logger) (ports.ResultRepository, error) {
	if cfg.Database.URL == "" {
		logger.Info("DATABASE_URL not set, result persistence disabled")
		return nil, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	repo := postgres.NewResultRepository(db)
	if impl, ok := repo.(*postgres.ResultRepositoryImpl); ok {
		if err := impl.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
	}
	logger.Info("result persistence enabled")
	return repo, nil
}
