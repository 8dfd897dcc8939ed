// Package api exposes the service over a small JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/julianstephens/dosekeep/internal/logger"
)

// NewRouter creates a router with every route configured. allowedOrigins may
// be empty, in which case cross-origin requests are refused.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/medications", func(r chi.Router) {
			r.Get("/", h.ListMedications)
			r.Post("/", h.CreateMedication)
			r.Get("/{id}", h.GetMedication)
			r.Post("/{id}/regenerate", h.RegenerateFuture)
			r.Post("/{id}/dedupe", h.Deduplicate)
			r.Post("/{id}/skip", h.SkipDay)
			r.Get("/{id}/runout", h.RunOut)
		})

		r.Post("/schedule/bootstrap", h.Bootstrap)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", h.DaySheet)
			r.Post("/ensure", h.EnsureLogs)
			r.Post("/{id}/taken", h.SetTaken)
		})

		r.Post("/occurrences/{id}/move", h.MoveOccurrence)
		r.Get("/pending", h.Pending)
	})

	return r
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
