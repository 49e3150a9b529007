// Package metrics exposes Prometheus counters for the HTTP surface and the
// ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equipdata_http_requests_total",
			Help: "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	// UploadsTotal counts upload attempts by outcome.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equipdata_uploads_total",
			Help: "Total number of upload attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// UploadRowsTotal counts data rows ingested by successful uploads.
	UploadRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "equipdata_upload_rows_total",
			Help: "Total number of data rows aggregated from successful uploads.",
		},
	)
)

// Upload outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)
