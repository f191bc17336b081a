package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/audio"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/config"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/metrics"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/pipeline"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/transcription"
)

// maxUploadBytes caps analyze uploads at 100 MB, enough for multi-hour
// telephony WAV files.
const maxUploadBytes = 100 << 20

// HTTPServer provides the HTTP API for recording analysis and monitoring
type HTTPServer struct {
	server  *http.Server
	logger  *slog.Logger
	config  *config.Config
	pipe    *pipeline.Pipeline
	stt     *transcription.Client
	metrics *metrics.Metrics

	// Server state
	startTime     time.Time
	totalAnalyses uint64
	gapsFound     uint64
	mu            sync.RWMutex
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger,
	appConfig *config.Config, pipe *pipeline.Pipeline, stt *transcription.Client, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    appConfig,
		pipe:      pipe,
		stt:       stt,
		metrics:   m,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Minute, // uploads can be large
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Recording analysis endpoint
	mux.HandleFunc("/analyze", h.withMetrics("/analyze", h.handleAnalyze))

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Statistics endpoint
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// handleAnalyze implements the /analyze endpoint: a multipart WAV upload is
// analyzed synchronously and the JSON outcome returned. Uploads are
// independent, so concurrent requests analyze in parallel.
func (h *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	analysisID := uuid.New().String()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("missing or invalid 'file' upload: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read upload: %v", err), http.StatusBadRequest)
		return
	}

	rec, err := audio.DecodeWAV(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to decode recording: %v", err), http.StatusBadRequest)
		return
	}
	rec.Path = header.Filename

	h.logger.Info("Analyzing uploaded recording",
		slog.String("analysis_id", analysisID),
		slog.String("file", header.Filename),
		slog.Float64("duration", rec.Duration),
	)

	outcome, err := h.pipe.RunRecording(r.Context(), rec)
	if err != nil {
		h.logger.Error("Analysis failed",
			slog.String("analysis_id", analysisID),
			slog.String("error", err.Error()),
		)
		http.Error(w, fmt.Sprintf("analysis failed: %v", err), http.StatusInternalServerError)
		return
	}

	h.recordAnalysis(outcome.HasGaps)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Analysis-ID", analysisID)
	json.NewEncoder(w).Encode(outcome)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.RLock()
	totalAnalyses := h.totalAnalyses
	gapsFound := h.gapsFound
	h.mu.RUnlock()

	sttStats := h.stt.GetStats()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "missing-transcript-detection",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"pipeline": map[string]interface{}{
				"status":              "running",
				"recordings_analyzed": totalAnalyses,
				"recordings_flagged":  gapsFound,
			},
			"transcription": map[string]interface{}{
				"status":          "running",
				"total_requests":  sttStats.TotalRequests,
				"success_rate":    sttStats.SuccessRate,
				"active_requests": sttStats.ActiveRequests,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleConfig implements the /config endpoint (sensitive data redacted)
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := map[string]interface{}{
		"detection": map[string]interface{}{
			"coverage_threshold":  h.config.Detection.CoverageThreshold,
			"min_vad_duration":    h.config.Detection.MinVADDuration,
			"significance_factor": h.config.Detection.SignificanceFactor,
		},
		"vad": map[string]interface{}{
			"model_path":           h.config.VAD.ModelPath,
			"threshold":            h.config.VAD.Threshold,
			"sample_rate":          h.config.VAD.SampleRate,
			"min_silence_duration": h.config.VAD.MinSilenceDuration,
		},
		"transcription": map[string]interface{}{
			"endpoint": h.config.Transcription.Endpoint,
			"model":    h.config.Transcription.Model,
			"language": h.config.Transcription.Language,
			"api_key":  "[REDACTED]",
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.RLock()
	totalAnalyses := h.totalAnalyses
	gapsFound := h.gapsFound
	h.mu.RUnlock()

	stats := map[string]interface{}{
		"uptime":              time.Since(h.startTime).String(),
		"recordings_analyzed": totalAnalyses,
		"recordings_flagged":  gapsFound,
		"transcription":       h.stt.GetStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleRoot provides API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	docs := map[string]interface{}{
		"service": "missing-transcript-detection",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /analyze": "Analyze an uploaded WAV recording (multipart field 'file')",
			"GET /health":   "Service health and component status",
			"GET /config":   "Active configuration (secrets redacted)",
			"GET /stats":    "Analysis and transcription statistics",
			"GET /metrics":  "Prometheus metrics",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

func (h *HTTPServer) recordAnalysis(hasGaps bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalAnalyses++
	if hasGaps {
		h.gapsFound++
	}
}
