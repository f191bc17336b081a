package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/audio"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/coverage"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/metrics"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/segment"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/transcription"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/vad"
)

// Transcriber is the speech-to-text capability consumed by the pipeline.
type Transcriber interface {
	Transcribe(ctx context.Context, rec *audio.Recording) (*transcription.Response, error)
}

// Outcome is the result of analyzing one recording.
type Outcome struct {
	File             string            `json:"file"`
	HasGaps          bool              `json:"has_missing_transcript"`
	Gaps             []coverage.Result `json:"gaps"`
	SpeechIntervals  int               `json:"speech_intervals"`
	WordCount        int               `json:"word_count"`
	DroppedIntervals int               `json:"dropped_intervals"`
	Elapsed          time.Duration     `json:"-"`
	AnalyzedAt       time.Time         `json:"analyzed_at"`
}

// Pipeline runs the full detection flow for one recording at a time. It holds
// no per-run state and is safe for concurrent use when its collaborators are.
type Pipeline struct {
	logger   *slog.Logger
	speech   vad.Detector
	stt      Transcriber
	detector *coverage.Detector
	metrics  *metrics.Metrics

	// load is swapped out in tests.
	load func(path string) (*audio.Recording, error)
}

// New creates a pipeline over the given collaborators.
func New(logger *slog.Logger, speech vad.Detector, stt Transcriber, detector *coverage.Detector) *Pipeline {
	return &Pipeline{
		logger:   logger,
		speech:   speech,
		stt:      stt,
		detector: detector,
		load:     audio.LoadWAV,
	}
}

// AttachMetrics enables Prometheus instrumentation of pipeline runs.
func (p *Pipeline) AttachMetrics(m *metrics.Metrics) {
	p.metrics = m
}

// Run analyzes one recording from disk and reports whether its transcript is
// likely missing speech. Collaborator failures are fatal to the run and
// returned to the caller.
func (p *Pipeline) Run(ctx context.Context, path string) (*Outcome, error) {
	rec, err := p.load(path)
	if err != nil {
		if p.metrics != nil {
			p.metrics.AnalysisFailures.Inc()
		}
		return nil, fmt.Errorf("failed to load recording: %w", err)
	}

	return p.RunRecording(ctx, rec)
}

// RunRecording analyzes an already-decoded recording. The HTTP server uses
// this path for uploads.
func (p *Pipeline) RunRecording(ctx context.Context, rec *audio.Recording) (*Outcome, error) {
	started := time.Now()

	outcome, err := p.analyze(ctx, rec)
	if err != nil {
		if p.metrics != nil {
			p.metrics.AnalysisFailures.Inc()
		}
		return nil, err
	}

	outcome.Elapsed = time.Since(started)
	outcome.AnalyzedAt = time.Now().UTC()

	if p.metrics != nil {
		p.metrics.RecordingsAnalyzed.Inc()
		p.metrics.AnalysisDuration.Observe(outcome.Elapsed.Seconds())
		p.metrics.SpeechIntervals.Observe(float64(outcome.SpeechIntervals))
		p.metrics.WordsPerRecording.Observe(float64(outcome.WordCount))
		if outcome.HasGaps {
			p.metrics.RecordingsWithGaps.Inc()
		}
		for _, gap := range outcome.Gaps {
			p.metrics.GapsDetected.Inc()
			p.metrics.GapDuration.Observe(gap.VADDuration)
			p.metrics.CoverageRatio.Observe(gap.CoverageRatio)
		}
	}

	p.logger.Info("Recording analyzed",
		slog.String("file", outcome.File),
		slog.Bool("has_missing_transcript", outcome.HasGaps),
		slog.Int("gaps", len(outcome.Gaps)),
		slog.Int("speech_intervals", outcome.SpeechIntervals),
		slog.Int("words", outcome.WordCount),
		slog.Duration("elapsed", outcome.Elapsed),
	)

	return outcome, nil
}

func (p *Pipeline) analyze(ctx context.Context, rec *audio.Recording) (*Outcome, error) {
	p.logger.Debug("Recording loaded",
		slog.String("file", rec.Path),
		slog.Int("sample_rate", rec.SampleRate),
		slog.Int("channels", rec.Channels),
		slog.Float64("duration", rec.Duration),
	)

	speech, err := p.detectSpeech(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("voice activity detection failed: %w", err)
	}

	words, wordCount, err := p.transcribeWords(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	speech, droppedSpeech := segment.Sanitize(speech)
	words, droppedWords := segment.Sanitize(words)
	dropped := droppedSpeech + droppedWords
	if dropped > 0 {
		// Malformed collaborator output is filtered rather than rejected;
		// the loss is surfaced in the log and the outcome.
		p.logger.Warn("Dropped malformed intervals",
			slog.String("file", rec.Path),
			slog.Int("speech_intervals", droppedSpeech),
			slog.Int("word_intervals", droppedWords),
		)
		if p.metrics != nil {
			p.metrics.MalformedIntervals.Add(float64(dropped))
		}
	}

	hasGaps, gaps := p.detector.Detect(speech, words)

	return &Outcome{
		File:             rec.Path,
		HasGaps:          hasGaps,
		Gaps:             gaps,
		SpeechIntervals:  len(speech),
		WordCount:        wordCount,
		DroppedIntervals: dropped,
	}, nil
}

func (p *Pipeline) detectSpeech(ctx context.Context, rec *audio.Recording) ([]segment.Interval, error) {
	started := time.Now()
	speech, err := p.speech.DetectSpeech(ctx, rec)
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.VADDetections.Inc()
		p.metrics.VADDuration.Observe(time.Since(started).Seconds())
	}

	return speech, nil
}

func (p *Pipeline) transcribeWords(ctx context.Context, rec *audio.Recording) ([]segment.Interval, int, error) {
	started := time.Now()
	if p.metrics != nil {
		p.metrics.TranscriptionRequests.Inc()
	}

	resp, err := p.stt.Transcribe(ctx, rec)
	if err != nil {
		if p.metrics != nil {
			p.metrics.TranscriptionFailures.Inc()
		}
		return nil, 0, err
	}

	if p.metrics != nil {
		p.metrics.TranscriptionSuccesses.Inc()
		p.metrics.TranscriptionDuration.Observe(time.Since(started).Seconds())
	}

	channels := resp.ChannelWords()
	wordCount := 0
	for _, ch := range channels {
		wordCount += len(ch)
	}

	return segment.MergeWords(channels...), wordCount, nil
}
