// Command server runs the missing-transcript detection HTTP service. Uploaded
// recordings are analyzed on demand and the service exposes health, stats and
// Prometheus metrics endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/config"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/coverage"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/metrics"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/pipeline"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/server"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/transcription"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/vad"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "missing-transcript-detection"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if !cfg.HTTP.Enabled {
		fmt.Fprintln(os.Stderr, "HTTP must be enabled in the configuration to run the server")
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := cfg.Logging.NewLogger()

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Float64("coverage_threshold", cfg.Detection.CoverageThreshold),
		slog.Float64("min_vad_duration", cfg.Detection.MinVADDuration),
		slog.Float64("significance_factor", cfg.Detection.SignificanceFactor),
		slog.String("vad_model_path", cfg.VAD.ModelPath),
		slog.Float64("vad_threshold", float64(cfg.VAD.Threshold)),
		slog.Int("vad_sample_rate", cfg.VAD.SampleRate),
		slog.String("transcription_endpoint", cfg.Transcription.Endpoint),
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize the coverage detector
	detector, err := coverage.NewDetector(cfg.Detection)
	if err != nil {
		logger.Error("Invalid detection thresholds", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Load the VAD model once; it is reused for every analysis
	speech, err := vad.NewSilero(vad.Config{
		ModelPath:          cfg.VAD.ModelPath,
		Threshold:          cfg.VAD.Threshold,
		SampleRate:         cfg.VAD.SampleRate,
		MinSilenceDuration: cfg.VAD.GetMinSilenceDuration(),
		SpeechPad:          cfg.VAD.GetSpeechPad(),
	})
	if err != nil {
		logger.Error("Failed to initialize VAD", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("VAD model loaded", slog.String("model_path", cfg.VAD.ModelPath))

	// Initialize transcription client
	stt, err := transcription.NewClient(transcription.Config{
		Endpoint:      cfg.Transcription.Endpoint,
		APIKey:        cfg.Transcription.APIKey,
		Model:         cfg.Transcription.Model,
		Language:      cfg.Transcription.Language,
		Keywords:      cfg.Transcription.Keywords,
		Timeout:       cfg.Transcription.GetTimeoutDuration(),
		MaxRetries:    cfg.Transcription.MaxRetries,
		MaxConcurrent: cfg.Transcription.MaxConcurrent,
	})
	if err != nil {
		logger.Error("Failed to create transcription client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Build the analysis pipeline
	pipe := pipeline.New(logger, speech, stt, detector)
	pipe.AttachMetrics(appMetrics)
	logger.Info("Analysis pipeline initialized")

	// Initialize and start the HTTP API server
	httpServer := server.NewHTTPServer(cfg.HTTP, logger, cfg, pipe, stt, appMetrics)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Release the ONNX session
	if err := speech.Close(); err != nil {
		logger.Error("Error closing VAD detector", slog.String("error", err.Error()))
	}

	// Get final statistics
	sttStats := stt.GetStats()
	logger.Info("Final transcription statistics",
		slog.Uint64("total_requests", sttStats.TotalRequests),
		slog.Uint64("success_requests", sttStats.SuccessRequests),
		slog.Uint64("failed_requests", sttStats.FailedRequests),
		slog.Uint64("total_retries", sttStats.TotalRetries),
	)

	logger.Info("Service stopped")
}
