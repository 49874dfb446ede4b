// Package metrics exposes Prometheus collectors for searches and ranking.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/himanishpuri/SimilarTracks/pkg/similar/client"
)

var (
	// SearchesTotal counts searches by source (cache, upstream) and outcome.
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similar_searches_total",
			Help: "Total number of similar-track searches",
		},
		[]string{"source", "outcome"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "similar_search_duration_seconds",
			Help: "Duration of similar-track searches in seconds",
			// Upstream searches fan out to several APIs and can take tens of seconds.
			Buckets: []float64{0.005, 0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 90},
		},
		[]string{"source"},
	)

	RankRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similar_rank_requests_total",
			Help: "Total number of rank and vocabulary requests",
		},
		[]string{"operation"},
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similar_rank_duration_seconds",
			Help:    "Duration of a single ranking pass in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	PassingCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similar_rank_passing_candidates",
			Help:    "Number of candidates surviving the filters per ranking pass",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		},
	)
)

// Outcome classifies a search error for the outcome label.
func Outcome(err error) string {
	var apiErr *client.APIError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, client.ErrCircuitOpen):
		return "circuit_open"
	case errors.As(err, &apiErr) && apiErr.Temporary():
		return "upstream_error"
	case errors.As(err, &apiErr):
		return "rejected"
	default:
		return "transport_error"
	}
}

// SearchObserver records every search the service performs.
type SearchObserver struct{}

func (SearchObserver) ObserveSearch(source string, err error, elapsed time.Duration) {
	SearchesTotal.WithLabelValues(source, Outcome(err)).Inc()
	SearchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordRank records one ranking pass.
func RecordRank(elapsed time.Duration, passing int) {
	RankRequestsTotal.WithLabelValues("rank").Inc()
	RankDuration.Observe(elapsed.Seconds())
	PassingCandidates.Observe(float64(passing))
}

// RecordVocabulary records one vocabulary build.
func RecordVocabulary() {
	RankRequestsTotal.WithLabelValues("vocabulary").Inc()
}
