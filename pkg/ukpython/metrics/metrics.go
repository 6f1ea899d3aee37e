// Package metrics provides the Prometheus collectors for the content server.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ukpython_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ukpython_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Import metrics
var (
	// ImportedRecordsTotal counts records written by dump loads, by kind
	ImportedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ukpython_import_records_total",
			Help: "Records loaded from the content dump",
		},
		[]string{"kind"},
	)

	// ImportErrorsTotal counts dump files that could not be loaded, by kind
	ImportErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ukpython_import_errors_total",
			Help: "Content dump files skipped because of errors",
		},
		[]string{"kind"},
	)

	// ImportRunsTotal counts dump loads by result
	ImportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ukpython_import_runs_total",
			Help: "Content dump loads by result",
		},
		[]string{"result"},
	)

	// ImportDuration measures dump load duration in seconds
	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ukpython_import_duration_seconds",
			Help:    "Content dump load duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordImport records the outcome of one dump load
func RecordImport(imported, skipped map[string]int, err error, duration time.Duration) {
	for kind, n := range imported {
		ImportedRecordsTotal.WithLabelValues(kind).Add(float64(n))
	}
	for kind, n := range skipped {
		ImportErrorsTotal.WithLabelValues(kind).Add(float64(n))
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	ImportRunsTotal.WithLabelValues(result).Inc()
	ImportDuration.Observe(duration.Seconds())
}

// Middleware records request counts and durations. Routes are labelled by
// their registered pattern so keys do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
