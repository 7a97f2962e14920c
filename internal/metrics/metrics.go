package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	payloadBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_payload_builds_total",
			Help: "Total number of template component payloads built",
		},
		[]string{"mode", "kind"},
	)

	uploadFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wa_media_upload_fallbacks_total",
			Help: "Card headers that fell back to the raw media reference after a failed upload",
		},
	)

	handleLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_media_handle_lookups_total",
			Help: "Asset handle lookups by the tier that answered",
		},
		[]string{"tier"},
	)

	messagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_messages_sent_total",
			Help: "Total number of template messages sent",
		},
		[]string{"status"},
	)

	templateRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wa_template_registrations_total",
			Help: "Total number of template registrations by provider status",
		},
		[]string{"status"},
	)
)

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func RecordPayloadBuild(mode, kind string) {
	payloadBuilds.WithLabelValues(mode, kind).Inc()
}

func RecordUploadFallback() {
	uploadFallbacks.Inc()
}

func RecordHandleLookup(tier string) {
	handleLookups.WithLabelValues(tier).Inc()
}

func RecordMessageSent(status string) {
	messagesSent.WithLabelValues(status).Inc()
}

func RecordTemplateRegistration(status string) {
	templateRegistrations.WithLabelValues(status).Inc()
}
