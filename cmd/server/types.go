//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/similar"
)

// MaxRequestBytes bounds every JSON request body.
const MaxRequestBytes = 4 << 20

// CachedSearchDTO represents a cached pool in API responses
type CachedSearchDTO struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	SeedName    string   `json:"seed_name"`
	SeedArtists []string `json:"seed_artists"`
	Candidates  int      `json:"candidates"`
	CreatedAt   string   `json:"created_at"`
}

// ListCachedResponse is the response for GET /api/cache
type ListCachedResponse struct {
	Searches []CachedSearchDTO `json:"searches"`
	Count    int               `json:"count"`
}

// MetricsResponse provides server health and cache metrics
type MetricsResponse struct {
	Status string        `json:"status"`
	Uptime string        `json:"uptime"`
	Stats  similar.Stats `json:"stats"`
}

// ErrorResponse is the error shape of the similarity-search API.
type ErrorResponse = models.ErrorBody
