package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"taskdesk/docs"
	"taskdesk/internal/auth"
	"taskdesk/internal/config"
	"taskdesk/internal/db"
	"taskdesk/internal/logging"
	"taskdesk/internal/repository"
	"taskdesk/internal/router"
	"taskdesk/internal/seed"
	"taskdesk/internal/service"
)

// @title taskdesk API
// @version 1.0.0
// @description Personal to-do list API with JWT authentication, statistics and an admin overview.
// @host localhost:8000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("database init", "error", err)
		os.Exit(1)
	}
	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	accountRepo := repository.NewAccountRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	if cfg.SeedDemo {
		res, err := seed.New(accountRepo, taskRepo, cfg.BcryptCost, logger).Run(context.Background())
		if err != nil {
			logger.Error("seed demo data", "error", err)
			os.Exit(1)
		}
		logger.Info("demo data ready", "created", res.Created, "skipped", res.Skipped)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	authOpts := service.AuthOptions{BcryptCost: cfg.BcryptCost, PasswordMinLength: cfg.PasswordMinLength}

	e := echo.New()
	router.Register(e, logger, router.Services{
		Auth:  service.NewAuthService(accountRepo, jwtService, authOpts),
		Tasks: service.NewTaskService(taskRepo),
		Stats: service.NewStatsService(taskRepo, accountRepo),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort
	}
	logger.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("server stopped")
}
