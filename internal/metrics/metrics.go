package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AttendanceActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkinflow_attendance_actions_total",
		Help: "Total number of successful attendance submissions, labelled by action.",
	}, []string{"action"})

	AttendanceRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkinflow_attendance_rejections_total",
		Help: "Total number of rejected attendance submissions, labelled by reason.",
	}, []string{"reason"})

	SeriesEventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkinflow_series_events_created_total",
		Help: "Total number of events created through recurring series generation.",
	})

	ExportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkinflow_exports_generated_total",
		Help: "Total number of check-in exports written, labelled by format.",
	}, []string{"format"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkinflow_http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds, labelled by method and status.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"method", "status"})
)
