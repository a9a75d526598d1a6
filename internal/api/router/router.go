package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/contractguard/contractguard/internal/http/handlers"
	httpmiddleware "github.com/contractguard/contractguard/internal/http/middleware"
	"github.com/contractguard/contractguard/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger      *logging.Logger
	Contracts   *handlers.ContractsHandler
	Negotiation *handlers.NegotiationHandler
	Approvals   *handlers.ApprovalsHandler
	Audit       *handlers.AuditHandler

	AuthSecret         string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Submissions fan out into LLM calls; 0 disables rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Authenticated API
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.UserJWT(cfg.AuthSecret))
		if cfg.RateLimitPerSecond > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}

		if cfg.Contracts != nil {
			api.Route("/contracts", func(r chi.Router) {
				r.Post("/", cfg.Contracts.Submit)
				r.Get("/", cfg.Contracts.List)
				r.Route("/{contractID}", func(r chi.Router) {
					r.Get("/", cfg.Contracts.Get)
					r.Post("/analyze", cfg.Contracts.Analyze)
					if cfg.Negotiation != nil {
						r.Post("/negotiation", cfg.Negotiation.Plan)
					}
				})
			})
		}

		if cfg.Negotiation != nil {
			api.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", cfg.Negotiation.GetSession)
				r.Post("/response", cfg.Negotiation.ProcessResponse)
			})
		}

		if cfg.Approvals != nil {
			api.Route("/approvals/{approvalID}", func(r chi.Router) {
				r.Get("/", cfg.Approvals.Get)
				r.Post("/approve", cfg.Approvals.Approve)
				r.Post("/reject", cfg.Approvals.Reject)
			})
		}

		if cfg.Audit != nil {
			api.Get("/audit/events", cfg.Audit.ListEvents)
		}
	})

	return r
}
