package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/postop-assistant/internal/assistant"
	"github.com/wolfman30/postop-assistant/internal/auth"
	"github.com/wolfman30/postop-assistant/internal/clinical"
	httpmiddleware "github.com/wolfman30/postop-assistant/internal/http/middleware"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Tokens             httpmiddleware.TokenParser
	AuthHandler        *auth.Handler
	ClinicalHandler    *clinical.Handler
	AssistantHandler   *assistant.Handler
	RateLimiter        *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// HealthCheck reports backing store reachability (optional).
	HealthCheck func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	// Identity must be resolved before the request logger reads it.
	if cfg.Tokens != nil {
		r.Use(httpmiddleware.Authenticate(cfg.Tokens))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthCheck))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Route("/auth", func(r chi.Router) {
				r.Post("/signup", cfg.AuthHandler.SignUp)
				r.Post("/signin", cfg.AuthHandler.SignIn)
				r.With(httpmiddleware.RequireAuth).Get("/session", cfg.AuthHandler.Session)
			})
		}
	})

	// The assistant answers anonymous callers too; contact details are
	// withheld by the router itself.
	if cfg.AssistantHandler != nil {
		r.Route("/assistant", func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			r.Mount("/", cfg.AssistantHandler.Routes())
		})
	}

	if cfg.ClinicalHandler != nil {
		r.Group(func(staff chi.Router) {
			staff.Use(httpmiddleware.RequireAuth)
			staff.Use(middleware.Compress(5))
			staff.Mount("/api", cfg.ClinicalHandler.Routes())
		})
	}

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, map[string]string{"status": "ok"}
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
