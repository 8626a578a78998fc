package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	appscrub "github.com/bryanwahyu/resume-scrubber/internal/application/scrub"
	appupload "github.com/bryanwahyu/resume-scrubber/internal/application/upload"
	"github.com/bryanwahyu/resume-scrubber/internal/config"
	domfail "github.com/bryanwahyu/resume-scrubber/internal/domain/failures"
	"github.com/bryanwahyu/resume-scrubber/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/resume-scrubber/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/resume-scrubber/internal/infra/db/postgres"
	"github.com/bryanwahyu/resume-scrubber/internal/infra/httpserver"
	"github.com/bryanwahyu/resume-scrubber/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal("config load error", "path", path, "err", err)
	}

	logger := newLogger(cfg)

	ctx := context.Background()

	// provider credentials are read per request; the process starts without them
	secrets := config.Secrets{}
	provider := openai.NewClient(secrets.APIKey, openai.Options{
		Model:       cfg.OpenAI.Model,
		BaseURL:     cfg.OpenAI.BaseURL,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	}, logger)

	scrubSvc := appscrub.NewService(provider)
	uploadSvc := appupload.NewService(provider, secrets.AssistantID, appupload.Poller{
		Interval:    cfg.Poll.Interval,
		MaxAttempts: cfg.Poll.MaxAttempts,
		Timeout:     cfg.Poll.Timeout,
	})

	checkers := map[string]middleware.HealthChecker{}

	// optional failure log
	var failures domfail.Repository
	if cfg.Failures.Driver != "" {
		db, repo, err := openFailureStore(ctx, cfg)
		if err != nil {
			log.Fatal("failure store error", "driver", cfg.Failures.Driver, "err", err)
		}
		defer db.Close()
		failures = repo
		checkers["failure_store"] = &middleware.PingChecker{DB: db}
		logger.Info("failure log enabled", "driver", cfg.Failures.Driver)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute)
		defer limiter.Stop()
	}

	routerOpts := httpserver.Options{
		Logger:         logger,
		Failures:       failures,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		APIKeys:        cfg.Auth.APIKeys,
		RateLimiter:    limiter,
		HealthCheckers: checkers,
		Credentials:    secrets.Missing,
	}
	if failures != nil && !httpserver.FailuresExposed(routerOpts) {
		logger.Warn("failure log is recorded but GET /failures stays disabled until auth.apiKeys is set")
	}
	handler := httpserver.NewRouter(scrubSvc, uploadSvc, routerOpts)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", addr, "model", cfg.OpenAI.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "scrubber",
	})
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	switch strings.ToLower(cfg.Log.Formatter) {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger
}

func openFailureStore(ctx context.Context, cfg *config.Config) (*sql.DB, domfail.Repository, error) {
	dsn := cfg.FailuresDSN()
	switch cfg.Failures.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		repo := mysqlp.NewFailureRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, repo, nil
	case "postgres":
		db, err := pgp.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		repo := pgp.NewFailureRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, repo, nil
	}
	return nil, nil, fmt.Errorf("unknown failures driver %q", cfg.Failures.Driver)
}
