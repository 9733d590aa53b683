// Package main is the entry point for the BuildMart chat server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/buildmart/buildmart-server/internal/config"
	"github.com/buildmart/buildmart-server/internal/database"
	"github.com/buildmart/buildmart-server/internal/domain"
	"github.com/buildmart/buildmart-server/internal/handler"
	"github.com/buildmart/buildmart-server/internal/knowledge"
	"github.com/buildmart/buildmart-server/internal/llm"
	"github.com/buildmart/buildmart-server/internal/logging"
	"github.com/buildmart/buildmart-server/internal/metrics"
	"github.com/buildmart/buildmart-server/internal/middleware"
	"github.com/buildmart/buildmart-server/internal/replies"
	"github.com/buildmart/buildmart-server/internal/repository"
	"github.com/buildmart/buildmart-server/internal/rfq"
	"github.com/buildmart/buildmart-server/internal/session"
	"github.com/buildmart/buildmart-server/internal/shutdown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(&logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting BuildMart chat server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Environment),
		zap.String("store", cfg.Store.Backend),
	)

	ctx := context.Background()
	m := metrics.NewMetrics()

	// Template bank; the clock seeds variant selection in production.
	bank, err := replies.NewBank(time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("loading response templates: %w", err)
	}

	// Knowledge base for assistant mode.
	kb, err := knowledge.Load(cfg.Assistant.KnowledgePath)
	if err != nil {
		return fmt.Errorf("loading knowledge base: %w", err)
	}
	assistant := llm.New(&cfg.Assistant, kb, logger.Named("llm").Zap())

	// Session store backend.
	var store session.Store
	switch cfg.Store.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		store, err = session.NewRedisStore(ctx, client, cfg.Chat.SessionTTL)
		if err != nil {
			return fmt.Errorf("connecting session store: %w", err)
		}
		logger.Info("using redis session store", zap.String("addr", cfg.Store.Redis.Addr))
	default:
		store = session.NewMemoryStore(cfg.Chat.SessionTTL)
	}

	// Optional lead archive.
	var db *database.DB
	var archiver session.LeadArchiver
	var dbChecker handler.HealthChecker
	if cfg.Database.Enabled {
		db, err = database.New(ctx, &cfg.Database, logger.Named("db").Zap())
		if err != nil {
			return fmt.Errorf("connecting database: %w", err)
		}
		archiver = countedArchiver{inner: repository.NewLeadRepository(db.Pool), counter: m.LeadsArchived}
		dbChecker = db
	}

	sessions := session.NewManager(bank, store, assistant, archiver, session.Config{
		ThinkingDelay:   cfg.Chat.ThinkingDelay,
		CompletionDelay: cfg.Chat.CompletionDelay,
	}, logger.Named("session").Zap())

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, logger.Zap(), m)

	shutdownCoord := shutdown.NewCoordinator(30*time.Second, logger.Zap())
	readiness := shutdown.NewReadinessProbe(shutdownCoord)

	h := handler.New(handler.Config{
		Sessions:  sessions,
		Assistant: assistant,
		RFQ:       rfq.NewBuilder(&cfg.RFQ),
		Metrics:   m,
		Logger:    logger,
		Readiness: readiness,
		DB:        dbChecker,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Routes(rateLimiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	shutdownCoord.RegisterFunc(shutdown.PhaseDrain, "http-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})
	if db != nil {
		shutdownCoord.RegisterFunc(shutdown.PhaseCleanup, "database", func(context.Context) error {
			db.Close()
			return nil
		})
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("received shutdown signal")

	return shutdownCoord.Shutdown(ctx)
}

// countedArchiver counts successfully archived leads.
type countedArchiver struct {
	inner   session.LeadArchiver
	counter prometheus.Counter
}

func (a countedArchiver) Save(ctx context.Context, lead *domain.Lead) error {
	if err := a.inner.Save(ctx, lead); err != nil {
		return err
	}
	a.counter.Inc()
	return nil
}
