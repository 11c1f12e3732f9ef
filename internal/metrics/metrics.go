// Package metrics holds the Prometheus collectors of the bridge.
//
// Label values are closed sets (source, outcome, result) so cardinality stays bounded.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttsbridge_webhooks_total",
			Help: "Webhook deliveries by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	orderSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttsbridge_vtex_order_submissions_total",
			Help: "VTEX order submissions by result.",
		},
		[]string{"result"},
	)

	labels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ttsbridge_labels_total",
			Help: "Shipping label generations by result.",
		},
		[]string{"result"},
	)

	dispatchQueue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ttsbridge_dispatch_queue_depth",
			Help: "Tasks waiting in the async dispatcher.",
		},
	)

	dispatchDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ttsbridge_dispatch_dropped_total",
			Help: "Tasks rejected because the dispatcher queue was full or closed.",
		},
	)

	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(webhooks, orderSubmissions, labels, dispatchQueue, dispatchDropped, httpReqs, httpLat)
}

// Webhook outcomes
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

// Submission results
const (
	SubmissionCreated  = "created"
	SubmissionRetried  = "pricing_retry"
	SubmissionNoSLA    = "no_sla"
	SubmissionRejected = "rejected"
)

func ObserveWebhook(source, outcome string) {
	webhooks.WithLabelValues(source, outcome).Inc()
}

func ObserveSubmission(result string) {
	orderSubmissions.WithLabelValues(result).Inc()
}

func ObserveLabel(ok bool) {
	if ok {
		labels.WithLabelValues("generated").Inc()
		return
	}
	labels.WithLabelValues("failed").Inc()
}

func SetDispatchQueueDepth(n int) {
	dispatchQueue.Set(float64(n))
}

func ObserveDispatchDropped() {
	dispatchDropped.Inc()
}

// Middleware records request count and latency per registered route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
