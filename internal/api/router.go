// Package api exposes the memoflow core over HTTP for the presentation layer.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/pathakanu/memoflow/internal/app"
)

// Config holds the optional pieces mounted next to the JSON API.
type Config struct {
	AllowedOrigins []string
	Location       *time.Location
	Metrics        http.Handler
	Webhook        http.Handler
}

// NewRouter builds the HTTP router.
func NewRouter(svc *app.Service, logger zerolog.Logger, cfg Config) http.Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	h := &handlers{
		svc:      svc,
		location: cfg.Location,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Webhook != nil {
		r.Method(http.MethodPost, "/twilio/webhook", cfg.Webhook)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/memos", func(r chi.Router) {
			r.Get("/", h.listMemos)
			r.Post("/", h.addMemo)
			r.Get("/grouped", h.groupedMemos)
			r.Delete("/{memoID}", h.removeMemo)
		})
		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.setSettings)
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.listReviews)
			r.Post("/", h.triggerReview)
			r.Get("/{reviewID}", h.getReview)
		})
	})
	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
