// Command gapdetect analyzes one call recording and reports time ranges where
// speech was detected but the transcript has no words.
//
// Exit codes: 0 when no gaps were found, 1 when at least one significant gap
// was detected, 2 on any error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/config"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/coverage"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/pipeline"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/report"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/transcription"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/vad"
)

const defaultConfigPath = "configs/config.yaml"

const (
	exitNoGaps = 0
	exitGaps   = 1
	exitError  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	filePath := flag.String("file", "", "Path to the WAV recording to analyze")
	format := flag.String("format", "text", "Report format: text or json")

	// Threshold overrides; config values apply when a flag is not set.
	coverageThreshold := flag.Float64("coverage-threshold", 0, "Coverage ratio below which a speech interval is flagged (0, 1]")
	minVADDuration := flag.Float64("min-vad-duration", 0, "Skip speech intervals shorter than this many seconds")
	significanceFactor := flag.Float64("significance-factor", 0, "Report only gaps longer than this many seconds")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: gapdetect -file <recording.wav> [-config <path>] [-format text|json]")
		return exitError
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "coverage-threshold":
			cfg.Detection.CoverageThreshold = *coverageThreshold
		case "min-vad-duration":
			cfg.Detection.MinVADDuration = *minVADDuration
		case "significance-factor":
			cfg.Detection.SignificanceFactor = *significanceFactor
		}
	})

	reportFormat, err := report.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid report format: %v\n", err)
		return exitError
	}

	logger := cfg.Logging.NewLogger()

	// Overrides are re-validated here.
	detector, err := coverage.NewDetector(cfg.Detection)
	if err != nil {
		logger.Error("Invalid detection thresholds", slog.String("error", err.Error()))
		return exitError
	}

	speech, err := vad.NewSilero(vad.Config{
		ModelPath:          cfg.VAD.ModelPath,
		Threshold:          cfg.VAD.Threshold,
		SampleRate:         cfg.VAD.SampleRate,
		MinSilenceDuration: cfg.VAD.GetMinSilenceDuration(),
		SpeechPad:          cfg.VAD.GetSpeechPad(),
	})
	if err != nil {
		logger.Error("Failed to initialize VAD", slog.String("error", err.Error()))
		return exitError
	}
	defer speech.Close()

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
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe := pipeline.New(logger, speech, stt, detector)

	outcome, err := pipe.Run(ctx, *filePath)
	if err != nil {
		logger.Error("Analysis failed",
			slog.String("file", *filePath),
			slog.String("error", err.Error()),
		)
		return exitError
	}

	if err := report.Write(os.Stdout, reportFormat, outcome); err != nil {
		logger.Error("Failed to write report", slog.String("error", err.Error()))
		return exitError
	}

	if outcome.HasGaps {
		return exitGaps
	}
	return exitNoGaps
}
