//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/himanishpuri/SimilarTracks/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.corsMiddleware())
	r.Use(loggingMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", s.handleRoot)

	// Health endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/api/health/metrics", s.handleMetrics)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit())

		// Search and ranking
		r.Post("/similar", s.handleSimilar)
		r.Post("/rank", s.handleRank)
		r.Post("/vocabulary", s.handleVocabulary)

		// Cache management
		r.Get("/cache", s.handleListCached)
		r.Delete("/cache/{id}", s.handleDeleteCached)
	})

	return r
}

// corsMiddleware builds the go-chi/cors handler from the configured allow list.
func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:         3600,
	})
}

// rateLimit limits the API group per client IP. A zero request count disables it.
func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.config.RateLimitRequests <= 0 || s.config.RateLimitWindow <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		s.config.RateLimitRequests,
		s.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, http.StatusTooManyRequests, "Too many requests, please slow down")
		}),
	)
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	log := logger.GetLogger().With("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Infof("%s %s from %s -> %d (%s)", r.Method, r.URL.Path, r.RemoteAddr, status, time.Since(start).Round(time.Microsecond))
	})
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Infof("SimilarTracks server starting on %s", s.config.Addr)
	s.log.Infof("   Display limit: %d", s.config.DisplayLimit)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	if s.config.RateLimitRequests > 0 {
		s.log.Infof("   Rate limit: %d requests per %s", s.config.RateLimitRequests, s.config.RateLimitWindow)
	}
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET    /health                  - Health check")
	s.log.Infof("   GET    /api/health/metrics      - Service metrics")
	s.log.Infof("   GET    /metrics                 - Prometheus metrics")
	s.log.Infof("   POST   /api/similar             - Fetch similar tracks")
	s.log.Infof("   POST   /api/rank                - Re-rank a candidate pool")
	s.log.Infof("   POST   /api/vocabulary          - Build tag vocabulary")
	s.log.Infof("   GET    /api/cache               - List cached searches")
	s.log.Infof("   DELETE /api/cache/{id}          - Delete a cached search")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Infof("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
