// Package monitoring exposes Prometheus metrics for the pipeline.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsTotal counts started jobs by mode.
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagrab_jobs_total",
		Help: "Number of jobs started, by mode.",
	}, []string{"mode"})

	// JobsFinished counts finished jobs by outcome.
	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagrab_jobs_finished_total",
		Help: "Number of jobs finished, by outcome.",
	}, []string{"outcome"})

	// ActiveJobs tracks the number of jobs currently running.
	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediagrab_active_jobs",
		Help: "Number of jobs currently running.",
	})

	// PagesFetched counts page fetches by result.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagrab_pages_fetched_total",
		Help: "Number of pages fetched, by result.",
	}, []string{"result"})

	// MediaExtracted counts media references extracted from pages by kind.
	MediaExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagrab_media_extracted_total",
		Help: "Number of media references extracted, by kind.",
	}, []string{"kind"})

	// MediaDelivered counts media payloads delivered to the channel by kind.
	MediaDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagrab_media_delivered_total",
		Help: "Number of media payloads delivered, by kind.",
	}, []string{"kind"})

	// SendsTotal counts channel send calls by result.
	SendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediagrab_sends_total",
		Help: "Number of channel sends, by result.",
	}, []string{"result"})

	// RateLimitWaits counts pauses forced by channel throttling.
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediagrab_rate_limit_waits_total",
		Help: "Number of waits caused by channel rate limiting.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
