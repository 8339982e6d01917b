package main

import (
	"context"
	"os"

	"taskdesk/internal/config"
	"taskdesk/internal/db"
	"taskdesk/internal/logging"
	"taskdesk/internal/repository"
	"taskdesk/internal/seed"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting seed")

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	seeder := seed.New(
		repository.NewAccountRepository(gormDB),
		repository.NewTaskRepository(gormDB),
		cfg.BcryptCost,
		logger,
	)
	res, err := seeder.Run(context.Background())
	if err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed completed", "created", res.Created, "skipped", res.Skipped)
}
