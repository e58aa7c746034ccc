package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Image analysis counters
	ImagesAnalyzed   atomic.Uint64
	PersonsEvaluated atomic.Uint64
	PersonsCompliant atomic.Uint64

	// Video and camera frame counters
	FramesRead      atomic.Uint64
	FramesEvaluated atomic.Uint64
	FramesCompliant atomic.Uint64
	FramesDropped   atomic.Uint64
	ViolationEvents atomic.Uint64
	VideosAnalyzed  atomic.Uint64
	VideosTruncated atomic.Uint64

	// Error counters
	DetectionErrors atomic.Uint64
	RejectedUploads atomic.Uint64

	ChatbotQueries atomic.Uint64

	// Latency tracking
	AnalysisLatencyMs atomic.Uint64 // Last image analysis latency in ms

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	counters := []struct {
		name  string
		help  string
		value *atomic.Uint64
	}{
		{"epp_images_analyzed_total", "Total images analyzed", &m.ImagesAnalyzed},
		{"epp_persons_evaluated_total", "Total persons evaluated in images", &m.PersonsEvaluated},
		{"epp_persons_compliant_total", "Total persons wearing all mandatory equipment", &m.PersonsCompliant},
		{"epp_frames_read_total", "Total video and camera frames read", &m.FramesRead},
		{"epp_frames_evaluated_total", "Total frames evaluated by the detector", &m.FramesEvaluated},
		{"epp_frames_compliant_total", "Total evaluated frames that passed the count rule", &m.FramesCompliant},
		{"epp_frames_dropped_total", "Total camera frames dropped because the queue was full", &m.FramesDropped},
		{"epp_violation_events_total", "Total violation events recorded", &m.ViolationEvents},
		{"epp_videos_analyzed_total", "Total videos analyzed", &m.VideosAnalyzed},
		{"epp_videos_truncated_total", "Total video analyses stopped before the end of the stream", &m.VideosTruncated},
		{"epp_detection_errors_total", "Total detector failures", &m.DetectionErrors},
		{"epp_rejected_uploads_total", "Total uploads rejected as unsupported or unreadable", &m.RejectedUploads},
		{"epp_chatbot_queries_total", "Total chatbot queries answered", &m.ChatbotQueries},
	}

	for _, c := range counters {
		value := c.value
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(value.Load()) },
		))
	}

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "epp_analysis_latency_ms",
			Help: "Latency of the last image analysis in milliseconds",
		},
		func() float64 { return float64(m.AnalysisLatencyMs.Load()) },
	))
}

// UpdateAnalysisLatency records the duration of the last image analysis
func (m *Metrics) UpdateAnalysisLatency(duration time.Duration) {
	m.AnalysisLatencyMs.Store(uint64(duration.Milliseconds()))
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
