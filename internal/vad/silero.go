package vad

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streamer45/silero-vad-go/speech"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/audio"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/segment"
)

// Detector is the speech-detection capability consumed by the pipeline.
type Detector interface {
	// DetectSpeech returns the speech intervals of a recording, sorted
	// ascending by start time.
	DetectSpeech(ctx context.Context, rec *audio.Recording) ([]segment.Interval, error)
}

// Config contains Silero detector configuration.
type Config struct {
	ModelPath          string
	Threshold          float32
	SampleRate         int
	MinSilenceDuration time.Duration // merges speech events separated by less silence
	SpeechPad          time.Duration
}

// Silero runs the Silero VAD ONNX model over full recordings. The underlying
// ONNX session is stateful, so calls are serialized; the model is loaded once
// at construction.
type Silero struct {
	cfg      Config
	detector *speech.Detector

	mu sync.Mutex
}

// NewSilero loads the Silero VAD model and returns a ready detector. The
// caller owns the detector and must release it with Close.
func NewSilero(cfg Config) (*Silero, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path cannot be empty")
	}

	if cfg.SampleRate != 8000 && cfg.SampleRate != 16000 {
		return nil, fmt.Errorf("sample rate must be 8000 or 16000 Hz, got %d", cfg.SampleRate)
	}

	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", cfg.Threshold)
	}

	sd, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            cfg.ModelPath,
		SampleRate:           cfg.SampleRate,
		Threshold:            cfg.Threshold,
		MinSilenceDurationMs: int(cfg.MinSilenceDuration.Milliseconds()),
		SpeechPadMs:          int(cfg.SpeechPad.Milliseconds()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load Silero VAD model %s: %w", cfg.ModelPath, err)
	}

	return &Silero{cfg: cfg, detector: sd}, nil
}

// DetectSpeech runs the model over the recording's mono PCM and returns the
// detected speech intervals sorted by start time. Segments the model leaves
// open-ended are closed at the end of the recording.
func (s *Silero) DetectSpeech(ctx context.Context, rec *audio.Recording) ([]segment.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if rec.SampleRate != s.cfg.SampleRate {
		return nil, fmt.Errorf("recording sample rate %d does not match VAD model rate %d",
			rec.SampleRate, s.cfg.SampleRate)
	}

	if len(rec.Mono) == 0 {
		return nil, fmt.Errorf("recording contains no samples")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	segments, err := s.detector.Detect(rec.Mono)
	if err != nil {
		return nil, fmt.Errorf("speech detection failed: %w", err)
	}

	// Clear model state so the next recording starts fresh.
	if err := s.detector.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset detector state: %w", err)
	}

	return normalize(segments, rec.Duration), nil
}

// Close releases the ONNX session.
func (s *Silero) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detector == nil {
		return nil
	}
	if err := s.detector.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy detector: %w", err)
	}
	s.detector = nil
	return nil
}

// normalize converts raw model segments into sorted speech intervals. An end
// timestamp of zero means the speech ran to the end of the audio.
func normalize(segments []speech.Segment, totalDuration float64) []segment.Interval {
	intervals := make([]segment.Interval, 0, len(segments))
	for _, seg := range segments {
		end := seg.SpeechEndAt
		if end <= 0 {
			end = totalDuration
		}
		intervals = append(intervals, segment.Interval{
			Start: seg.SpeechStartAt,
			End:   end,
		})
	}

	segment.SortByStart(intervals)
	return intervals
}
