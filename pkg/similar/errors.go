package similar

import (
	"context"
	"errors"

	"github.com/himanishpuri/SimilarTracks/pkg/similar/client"
)

var (
	// ErrEmptyURL is returned when a search is started without a seed reference.
	ErrEmptyURL = errors.New("track URL is required")

	// ErrCacheMiss is returned by cache lookups that found nothing usable.
	ErrCacheMiss = errors.New("no cached pool")
)

// UserMessage turns a search error into the text shown to the user. Server
// supplied details are passed through verbatim; anything else gets the
// generic fallback.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message()
	case errors.Is(err, ErrEmptyURL):
		return "Please enter a track URL."
	case errors.Is(err, client.ErrCircuitOpen):
		return "The search service is temporarily unavailable. Please try again shortly."
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	default:
		return "Request failed"
	}
}
