package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redirect outcomes used as the "outcome" label of RedirectsTotal.
const (
	OutcomeRedirected = "redirected"
	OutcomeNotFound   = "not_found"
	OutcomeNoNumber   = "no_active_number"
	OutcomeBot        = "bot"
	OutcomeError      = "error"
)

// ApplicationMetrics tracks the redirect and analytics pipeline
type ApplicationMetrics struct {
	// Redirects
	RedirectsTotal   *prometheus.CounterVec
	RedirectDuration prometheus.Histogram
	BotHitsTotal     *prometheus.CounterVec
	VisitorsTotal    *prometheus.CounterVec

	// Write-behind analytics queue
	AnalyticsQueueDepth  prometheus.Gauge
	AnalyticsJobsTotal   *prometheus.CounterVec
	AnalyticsJobDuration prometheus.Histogram

	// Downstream lookups and publishing
	GeoLookupsTotal      *prometheus.CounterVec
	EventsPublishedTotal *prometheus.CounterVec

	// Retention
	PrunedRowsTotal *prometheus.CounterVec
}

func newApplicationMetrics() *ApplicationMetrics {
	return &ApplicationMetrics{
		RedirectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redirects_total",
				Help: "Total number of short link requests by outcome",
			},
			[]string{"outcome"},
		),
		RedirectDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "redirect_duration_seconds",
				Help:    "Time spent resolving a short link before responding",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		BotHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_hits_total",
				Help: "Total number of link preview crawler hits",
			},
			[]string{"bot"},
		),
		VisitorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visitors_total",
				Help: "Total number of attributed visits by visitor kind",
			},
			[]string{"kind"},
		),
		AnalyticsQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "analytics_queue_depth",
				Help: "Number of access jobs waiting in the analytics queue",
			},
		),
		AnalyticsJobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_jobs_total",
				Help: "Total number of analytics jobs by status",
			},
			[]string{"status"},
		),
		AnalyticsJobDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analytics_job_duration_seconds",
				Help:    "Analytics job processing time in seconds",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		GeoLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geo_lookups_total",
				Help: "Total number of country lookups by source",
			},
			[]string{"source"},
		),
		EventsPublishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_published_total",
				Help: "Total number of access events published by status",
			},
			[]string{"status"},
		),
		PrunedRowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "retention_pruned_rows_total",
				Help: "Total number of history rows removed by retention",
			},
			[]string{"table"},
		),
	}
}
