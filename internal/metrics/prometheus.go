package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the gap-detection service
type Metrics struct {
	// Analysis metrics
	RecordingsAnalyzed  prometheus.Counter
	RecordingsWithGaps  prometheus.Counter
	AnalysisFailures    prometheus.Counter
	AnalysisDuration    prometheus.Histogram
	GapsDetected        prometheus.Counter
	GapDuration         prometheus.Histogram
	CoverageRatio       prometheus.Histogram
	SpeechIntervals     prometheus.Histogram
	WordsPerRecording   prometheus.Histogram
	MalformedIntervals  prometheus.Counter

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// VAD metrics
	VADDetections prometheus.Counter
	VADDuration   prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		RecordingsAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_recordings_analyzed_total",
			Help: "Total number of recordings analyzed",
		}),
		RecordingsWithGaps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_recordings_with_gaps_total",
			Help: "Total number of recordings with missing-transcript gaps detected",
		}),
		AnalysisFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_analysis_failures_total",
			Help: "Total number of recordings whose analysis failed",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gapdetect_analysis_duration_seconds",
			Help:    "End-to-end time spent analyzing a recording",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5 minutes
		}),
		GapsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_gaps_detected_total",
			Help: "Total number of significant missing-transcript gaps reported",
		}),
		GapDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gapdetect_gap_duration_seconds",
			Help:    "Duration of reported missing-transcript gaps",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),
		CoverageRatio: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gapdetect_gap_coverage_ratio",
			Help:    "Word coverage ratio of reported gaps",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 to 1.0
		}),
		SpeechIntervals: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gapdetect_speech_intervals_per_recording",
			Help:    "Number of VAD speech intervals per recording",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		}),
		WordsPerRecording: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gapdetect_words_per_recording",
			Help:    "Number of transcript words per recording across all channels",
			Buckets: prometheus.ExponentialBuckets(8, 2, 12), // 8 to ~16k
		}),
		MalformedIntervals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_malformed_intervals_dropped_total",
			Help: "Total number of malformed collaborator intervals dropped before analysis",
		}),

		TranscriptionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_transcription_requests_total",
			Help: "Total number of transcription requests sent",
		}),
		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_transcription_successes_total",
			Help: "Total number of successful transcription requests",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gapdetect_transcription_duration_seconds",
			Help:    "Time spent waiting on the transcription API",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		VADDetections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gapdetect_vad_detections_total",
			Help: "Total number of VAD detection passes",
		}),
		VADDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gapdetect_vad_duration_seconds",
			Help:    "Time spent running the VAD model",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gapdetect_http_requests_total",
			Help: "Total number of HTTP API requests",
		}, []string{"method", "endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gapdetect_http_request_duration_seconds",
			Help:    "HTTP API request duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gapdetect_http_errors_total",
			Help: "Total number of HTTP API error responses",
		}, []string{"method", "endpoint", "type"}),
	}
}

// RecordHTTPRequest records metrics for one handled HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, duration float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordHTTPError records an HTTP error response
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
