package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/buildmart/buildmart-server/internal/domain"
	"github.com/buildmart/buildmart-server/internal/logging"
	"github.com/buildmart/buildmart-server/internal/metrics"
	"github.com/buildmart/buildmart-server/internal/middleware"
	"github.com/buildmart/buildmart-server/internal/rfq"
	"github.com/buildmart/buildmart-server/internal/session"
	"github.com/buildmart/buildmart-server/internal/shutdown"
)

// Assistant is the upstream model dependency of the proxy endpoint.
type Assistant interface {
	Reply(ctx context.Context, transcript []domain.Message, language string) (string, error)
}

// HealthChecker reports the health of a backing dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler wires the HTTP surface to the chat services.
type Handler struct {
	sessions  *session.Manager
	assistant Assistant
	rfq       *rfq.Builder
	validate  *validator.Validate
	metrics   *metrics.Metrics
	logger    *logging.Logger
	readiness *shutdown.ReadinessProbe
	db        HealthChecker // nil when lead archiving is disabled
}

// Config holds handler dependencies.
type Config struct {
	Sessions  *session.Manager
	Assistant Assistant
	RFQ       *rfq.Builder
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
	Readiness *shutdown.ReadinessProbe
	DB        HealthChecker
}

// New creates the handler.
func New(cfg Config) *Handler {
	return &Handler{
		sessions:  cfg.Sessions,
		assistant: cfg.Assistant,
		rfq:       cfg.RFQ,
		validate:  validator.New(),
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		readiness: cfg.Readiness,
		db:        cfg.DB,
	}
}

// Routes builds the router with the full middleware stack.
func (h *Handler) Routes(rl *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(h.logger.Zap()))
	r.Use(middleware.Correlation)
	r.Use(middleware.RequestLogger(h.logger.Zap(), h.metrics))
	r.Use(middleware.CORS)

	// Probes and operational endpoints stay outside the rate limit.
	r.Get("/health", h.handleHealth)
	r.Get("/live", h.handleLive)
	r.Get("/ready", h.handleReady)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	r.Handle("/debug/log-level", h.logger)

	r.Group(func(r chi.Router) {
		if rl != nil {
			r.Use(middleware.RateLimit(rl))
		}

		r.Post("/chat", h.handleChat)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/categories", h.handleCategories)
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", h.handleOpenSession)
				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/messages", h.handleTranscript)
					r.Post("/messages", h.handleSubmitMessage)
					r.Get("/rfq", h.handleRFQLinks)
					r.Delete("/", h.handleCloseSession)
				})
			})
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("health check: database unreachable", zap.Error(err))
			status["status"] = "degraded"
			status["database"] = "unreachable"
			JSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	JSON(w, http.StatusOK, status)
}

func (h *Handler) handleLive(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *Handler) handleReady(w http.ResponseWriter, _ *http.Request) {
	if h.readiness != nil && !h.readiness.IsReady() {
		JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) handleCategories(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, CategoriesResponse{Categories: domain.Categories()})
}
