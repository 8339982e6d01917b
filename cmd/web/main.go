package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"taskdesk/internal/auth"
	"taskdesk/internal/cache"
	"taskdesk/internal/config"
	"taskdesk/internal/db"
	"taskdesk/internal/logging"
	"taskdesk/internal/repository"
	"taskdesk/internal/seed"
	"taskdesk/internal/service"
	"taskdesk/internal/web"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("database init", "error", err)
		os.Exit(1)
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

	store, closeStore, err := sessionStore(cfg, logger)
	if err != nil {
		logger.Error("session store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	authOpts := service.AuthOptions{BcryptCost: cfg.BcryptCost, PasswordMinLength: cfg.PasswordMinLength}
	e := echo.New()
	err = web.Register(e, logger, store, web.Services{
		// The web variant never issues tokens.
		Auth:  service.NewAuthService(accountRepo, nil, authOpts),
		Tasks: service.NewTaskService(taskRepo),
		Stats: service.NewStatsService(taskRepo, accountRepo),
	})
	if err != nil {
		logger.Error("web init", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(":" + cfg.WebPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// sessionStore builds the configured session backend. Redis is the default; "filesystem" keeps records on disk.
func sessionStore(cfg *config.Config, logger *slog.Logger) (sessions.Store, func(), error) {
	key := []byte(cfg.SessionSecret)
	secure := func(o *sessions.Options) {
		o.Secure = cfg.SessionSecure
		o.HttpOnly = true
		o.SameSite = http.SameSiteLaxMode
	}

	switch cfg.SessionBackend {
	case "filesystem":
		store := sessions.NewFilesystemStore(cfg.SessionDir, key)
		store.MaxAge(cfg.SessionMaxAge)
		secure(store.Options)
		logger.Info("session backend", "kind", "filesystem", "dir", cfg.SessionDir)
		return store, func() {}, nil
	case "redis":
		client := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, "taskdesk:")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		store := auth.NewRedisSessionStore(client, cfg.SessionMaxAge, key)
		secure(store.Options)
		logger.Info("session backend", "kind", "redis", "addr", cfg.RedisAddr)
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, errors.New("unknown SESSION_BACKEND " + cfg.SessionBackend)
	}
}
