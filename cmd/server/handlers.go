//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/himanishpuri/SimilarTracks/internal/metrics"
	"github.com/himanishpuri/SimilarTracks/internal/rankapi"
	"github.com/himanishpuri/SimilarTracks/internal/validation"
	"github.com/himanishpuri/SimilarTracks/pkg/logger"
	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/similar"
	"github.com/himanishpuri/SimilarTracks/pkg/similar/client"
	"github.com/himanishpuri/SimilarTracks/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service similar.Service
	config  *ServerConfig
	log     similar.Logger
	started time.Time
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	DisplayLimit   int
	SearchTimeout  time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// RateLimitRequests per RateLimitWindow per client IP on /api; 0 disables.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewServer creates a new server instance
func NewServer(service similar.Service, config *ServerConfig) *Server {
	if config.DisplayLimit <= 0 {
		config.DisplayLimit = similar.DefaultDisplayLimit
	}
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("server"),
		started: time.Now(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response in the {"detail": ...} shape
func (s *Server) respondError(w http.ResponseWriter, statusCode int, detail string) {
	s.respondJSON(w, statusCode, ErrorResponse{Detail: detail})
}

// decodeJSON reads a bounded JSON body into v and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.log.Warnf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validation.Struct(v); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "SimilarTracks API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "GET /health",
			"metrics":     "GET /api/health/metrics",
			"prometheus":  "GET /metrics",
			"similar":     "POST /api/similar",
			"rank":        "POST /api/rank",
			"vocabulary":  "POST /api/vocabulary",
			"listCache":   "GET /api/cache",
			"deleteCache": "DELETE /api/cache/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	st := s.service.Stats()
	status := "healthy"
	if st.BreakerState == "open" {
		status = "degraded"
	}
	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status: status,
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Stats:  st,
	})
}

// handleSimilar handles POST /api/similar. The full pool is fetched (or
// served from the cache) and the first limit candidates are returned in
// server order.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	req := models.SimilarRequest{Limit: similar.PoolSize}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	if s.config.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SearchTimeout)
		defer cancel()
	}

	resp, err := s.service.Search(ctx, req.URL)
	if err != nil {
		status, detail := searchErrorStatus(err)
		s.log.Warnf("Search for %s failed (%d): %v", req.URL, status, err)
		s.respondError(w, status, detail)
		return
	}

	out := *resp
	if len(out.SimilarTracks) > req.Limit {
		out.SimilarTracks = out.SimilarTracks[:req.Limit]
	}
	s.respondJSON(w, http.StatusOK, out)
}

// searchErrorStatus maps a search error to an HTTP status and detail.
func searchErrorStatus(err error) (int, string) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, similar.ErrEmptyURL):
		return http.StatusBadRequest, similar.UserMessage(err)
	case errors.As(err, &apiErr):
		// Only client errors pass through; anything else is the upstream's fault.
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode, apiErr.Message()
		}
		return http.StatusBadGateway, apiErr.Message()
	case errors.Is(err, client.ErrCircuitOpen):
		return http.StatusServiceUnavailable, similar.UserMessage(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, similar.UserMessage(err)
	default:
		return http.StatusBadGateway, similar.UserMessage(err)
	}
}

// handleRank handles POST /api/rank (stateless re-rank of a client-held pool)
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankapi.RankRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	start := time.Now()
	resp := rankapi.Rank(&req, s.config.DisplayLimit)
	metrics.RecordRank(time.Since(start), resp.TotalPassing)

	s.respondJSON(w, http.StatusOK, resp)
}

// handleVocabulary handles POST /api/vocabulary
func (s *Server) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	var req rankapi.VocabularyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp := rankapi.Vocabulary(&req)
	metrics.RecordVocabulary()
	s.respondJSON(w, http.StatusOK, resp)
}

// handleListCached handles GET /api/cache
func (s *Server) handleListCached(w http.ResponseWriter, r *http.Request) {
	cached, err := s.service.ListCached()
	if err != nil {
		s.log.Errorf("Failed to list cached searches: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve cached searches")
		return
	}

	dtos := make([]CachedSearchDTO, len(cached))
	for i, c := range cached {
		dtos[i] = CachedSearchDTO{
			ID:          c.ID,
			URL:         c.URL,
			SeedName:    c.SeedName,
			SeedArtists: c.SeedArtists,
			Candidates:  c.Candidates,
			CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		}
	}
	s.respondJSON(w, http.StatusOK, ListCachedResponse{
		Searches: dtos,
		Count:    len(dtos),
	})
}

// handleDeleteCached handles DELETE /api/cache/{id}
func (s *Server) handleDeleteCached(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !utils.IsUUID(id) {
		s.respondError(w, http.StatusBadRequest, "Invalid cache entry ID")
		return
	}

	if err := s.service.DeleteCached(id); err != nil {
		if errors.Is(err, similar.ErrCacheMiss) {
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("Cached search %s not found", id))
			return
		}
		s.log.Errorf("Failed to delete cached search %s: %v", id, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete cached search")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Cached search deleted",
		"id":      id,
	})
}
