//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/himanishpuri/SimilarTracks/internal/rankapi"
	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/similar"
	"github.com/himanishpuri/SimilarTracks/pkg/similar/client"
)

const cacheID = "0b9f5a3c-6a7d-4a53-9d55-0f4a8f6f3a21"

type fakeService struct {
	resp    *models.SimilarResponse
	err     error
	cached  []models.CachedSearch
	deleted []string
}

func (f *fakeService) Search(ctx context.Context, trackURL string) (*models.SimilarResponse, error) {
	if strings.TrimSpace(trackURL) == "" {
		return nil, similar.ErrEmptyURL
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeService) NewSession(ctx context.Context, trackURL string, displayLimit int) (*similar.Session, error) {
	resp, err := f.Search(ctx, trackURL)
	if err != nil {
		return nil, err
	}
	s := similar.NewSession()
	s.Begin(displayLimit)
	s.Load(resp)
	return s, nil
}

func (f *fakeService) ListCached() ([]models.CachedSearch, error) { return f.cached, nil }

func (f *fakeService) DeleteCached(id string) error {
	for _, c := range f.cached {
		if c.ID == id {
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return similar.ErrCacheMiss
}

func (f *fakeService) PurgeCache(olderThan time.Duration) (int64, error) { return 0, nil }
func (f *fakeService) Stats() similar.Stats                            { return similar.Stats{CacheEnabled: true, CachedPools: 1} }
func (f *fakeService) Close() error                                    { return nil }

func poolResponse() *models.SimilarResponse {
	return &models.SimilarResponse{
		SeedTrack: models.Track{Name: "Seed", Artists: []string{"A"}, BPM: models.Float(120)},
		SeedTags:  []string{"indie"},
		SimilarTracks: []models.Track{
			{Name: "Near", MatchScore: models.Float(0.9), BPM: models.Float(126), Tags: []string{"indie"}},
			{Name: "Same", MatchScore: models.Float(0.7), BPM: models.Float(120), Tags: []string{"rock"}},
			{Name: "Fast", MatchScore: models.Float(0.95), BPM: models.Float(140), Tags: []string{"indie"}},
		},
	}
}

func setupServer(t *testing.T, svc similar.Service) http.Handler {
	t.Helper()
	s := NewServer(svc, &ServerConfig{AllowedOrigins: []string{"*"}, DisplayLimit: 10})
	return s.setupRoutes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Detail
}

func TestHandleHealth(t *testing.T) {
	h := setupServer(t, &fakeService{})

	rec := doJSON(t, h, http.MethodGet, "/health", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestHandleSimilar(t *testing.T) {
	h := setupServer(t, &fakeService{resp: poolResponse()})

	rec := doJSON(t, h, http.MethodPost, "/api/similar", map[string]any{"url": "https://open.spotify.com/track/x", "limit": 2})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.SimilarResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.SimilarTracks) != 2 {
		t.Errorf("Expected 2 tracks, got %d", len(resp.SimilarTracks))
	}
	if resp.SeedTrack.Name != "Seed" {
		t.Errorf("Expected seed track, got %s", resp.SeedTrack.Name)
	}
}

func TestHandleSimilar_Errors(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		body       any
		wantStatus int
		wantDetail string
	}{
		{"missing url", nil, map[string]any{"limit": 5}, http.StatusBadRequest, "URL is required"},
		{"limit too large", nil, map[string]any{"url": "x", "limit": 80}, http.StatusBadRequest, "Limit must be at most 50"},
		{"upstream detail", &client.APIError{StatusCode: 400, Detail: "Could not resolve track."}, map[string]any{"url": "x"}, http.StatusBadRequest, "Could not resolve track."},
		{"upstream not found", &client.APIError{StatusCode: 404, Detail: "Track not found."}, map[string]any{"url": "x"}, http.StatusNotFound, "Track not found."},
		{"upstream failure", &client.APIError{StatusCode: 500}, map[string]any{"url": "x"}, http.StatusBadGateway, "Request failed (500)"},
		{"upstream redirect", &client.APIError{StatusCode: 302}, map[string]any{"url": "x"}, http.StatusBadGateway, "Request failed (302)"},
		{"upstream informational", &client.APIError{StatusCode: 103}, map[string]any{"url": "x"}, http.StatusBadGateway, "Request failed (103)"},
		{"breaker open", client.ErrCircuitOpen, map[string]any{"url": "x"}, http.StatusServiceUnavailable, "The search service is temporarily unavailable. Please try again shortly."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupServer(t, &fakeService{resp: poolResponse(), err: tt.svcErr})

			rec := doJSON(t, h, http.MethodPost, "/api/similar", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := decodeDetail(t, rec); got != tt.wantDetail {
				t.Errorf("Expected detail %q, got %q", tt.wantDetail, got)
			}
		})
	}
}

func TestHandleSimilar_MethodNotAllowed(t *testing.T) {
	h := setupServer(t, &fakeService{})

	rec := doJSON(t, h, http.MethodGet, "/api/similar", nil)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestHandleSimilar_InvalidBody(t *testing.T) {
	h := setupServer(t, &fakeService{})
	req := httptest.NewRequest(http.MethodPost, "/api/similar", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if got := decodeDetail(t, rec); got != "Invalid request body" {
		t.Errorf("Unexpected detail %q", got)
	}
}

func TestHandleRank(t *testing.T) {
	h := setupServer(t, &fakeService{})
	pool := poolResponse()
	tolerance := 10

	rec := doJSON(t, h, http.MethodPost, "/api/rank", rankapi.RankRequest{
		SeedTrack:      pool.SeedTrack,
		SimilarTracks:  pool.SimilarTracks,
		TempoTolerance: &tolerance,
		SelectedTags:   []string{" Indie "},
		Limit:          1,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp rankapi.RankResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.TotalPassing != 2 || resp.Shown != 1 {
		t.Errorf("Expected 1 of 2, got %d of %d", resp.Shown, resp.TotalPassing)
	}
	if resp.Results[0].Name != "Near" {
		t.Errorf("Expected Near first, got %s", resp.Results[0].Name)
	}
	if resp.Summary != "Showing 1 of 2" {
		t.Errorf("Unexpected summary %q", resp.Summary)
	}
	if len(resp.Filters.SelectedTags) != 1 || resp.Filters.SelectedTags[0] != "indie" {
		t.Errorf("Expected normalized tag filter, got %v", resp.Filters.SelectedTags)
	}
}

func TestHandleRank_Defaults(t *testing.T) {
	h := setupServer(t, &fakeService{})
	pool := poolResponse()

	rec := doJSON(t, h, http.MethodPost, "/api/rank", map[string]any{
		"seed_track":     pool.SeedTrack,
		"similar_tracks": pool.SimilarTracks,
	})

	var resp rankapi.RankResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Filters.TempoTolerance != similar.NoTempoFilter || resp.Filters.DisplayLimit != 10 {
		t.Errorf("Expected default filters, got %+v", resp.Filters)
	}
	if resp.TotalPassing != 3 {
		t.Errorf("Expected all 3 to pass, got %d", resp.TotalPassing)
	}
}

func TestHandleRank_EmptyPool(t *testing.T) {
	h := setupServer(t, &fakeService{})

	rec := doJSON(t, h, http.MethodPost, "/api/rank", map[string]any{})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("Expected empty results array, got %s", rec.Body.String())
	}
}

func TestHandleRank_InvalidTolerance(t *testing.T) {
	h := setupServer(t, &fakeService{})

	rec := doJSON(t, h, http.MethodPost, "/api/rank", map[string]any{"tempo_tolerance": 150})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if got := decodeDetail(t, rec); got != "TempoTolerance must be at most 100" {
		t.Errorf("Unexpected detail %q", got)
	}
}

func TestHandleVocabulary(t *testing.T) {
	h := setupServer(t, &fakeService{})
	pool := poolResponse()

	rec := doJSON(t, h, http.MethodPost, "/api/vocabulary", rankapi.VocabularyRequest{
		SimilarTracks: pool.SimilarTracks,
		SeedTags:      []string{"Indie"},
	})

	var resp rankapi.VocabularyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("Expected 2 tags, got %v", resp.Tags)
	}
	if resp.Tags[0] != (similar.TagCount{Tag: "indie", Weight: 7}) {
		t.Errorf("Expected indie weighted 7, got %+v", resp.Tags[0])
	}
}

func TestHandleCache(t *testing.T) {
	svc := &fakeService{cached: []models.CachedSearch{{ID: cacheID, SeedName: "Seed", Candidates: 3, CreatedAt: time.Now()}}}
	h := setupServer(t, svc)

	rec := doJSON(t, h, http.MethodGet, "/api/cache", nil)
	var list ListCachedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if list.Count != 1 || list.Searches[0].ID != cacheID {
		t.Fatalf("Expected the cached entry, got %+v", list)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/cache/"+cacheID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/cache/1c7e8d4e-0000-4000-8000-000000000000", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown entry, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/cache/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	s := NewServer(&fakeService{}, &ServerConfig{AllowedOrigins: []string{"https://app.example"}})
	h := s.setupRoutes()

	req := httptest.NewRequest(http.MethodOptions, "/api/rank", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Errorf("Expected 200 or 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for unknown origin, got %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	s := NewServer(&fakeService{}, &ServerConfig{
		AllowedOrigins:    []string{"*"},
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})
	h := s.setupRoutes()

	for i := 0; i < 2; i++ {
		rec := doJSON(t, h, http.MethodGet, "/api/cache", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/cache", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 once the limit is reached, got %d", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail == "" {
		t.Error("Expected a detail message on 429")
	}

	// Health checks sit outside the limited group.
	if rec := doJSON(t, h, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("Expected /health to stay reachable, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := setupServer(t, &fakeService{})

	rec := doJSON(t, h, http.MethodGet, "/api/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail != "Not Found" {
		t.Errorf("Expected Not Found detail, got %q", detail)
	}
}

func TestMetricsEndpoints(t *testing.T) {
	h := setupServer(t, &fakeService{})

	rec := doJSON(t, h, http.MethodGet, "/api/health/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cached_pools":1`) {
		t.Errorf("Unexpected metrics response %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rec.Code)
	}
}
