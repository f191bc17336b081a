package coverage

import (
	"fmt"
	"sort"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/segment"
)

// Reference deployment defaults. A 0.6 threshold was sufficient to capture
// missing-transcript bugs in internal testing against production call audio.
const (
	DefaultCoverageThreshold  = 0.6
	DefaultMinVADDuration     = 2.0
	DefaultSignificanceFactor = 5.0
)

// Config holds the detection thresholds.
type Config struct {
	// CoverageThreshold is the fraction of a speech interval's duration that
	// must overlap word timestamps for the interval to count as covered.
	// Intervals with a ratio strictly below this are flagged.
	CoverageThreshold float64 `yaml:"coverage_threshold"`

	// MinVADDuration skips speech intervals shorter than this many seconds.
	// Very short utterances produce noisy ratios.
	MinVADDuration float64 `yaml:"min_vad_duration"`

	// SignificanceFactor drops flagged intervals whose duration does not
	// exceed this many seconds. A few missed words are not a bug.
	SignificanceFactor float64 `yaml:"significance_factor"`
}

// DefaultConfig returns the reference deployment thresholds.
func DefaultConfig() Config {
	return Config{
		CoverageThreshold:  DefaultCoverageThreshold,
		MinVADDuration:     DefaultMinVADDuration,
		SignificanceFactor: DefaultSignificanceFactor,
	}
}

// Validate rejects malformed threshold configuration.
func (c *Config) Validate() error {
	if c.CoverageThreshold <= 0 || c.CoverageThreshold > 1 {
		return fmt.Errorf("coverage_threshold must be in (0, 1], got %f", c.CoverageThreshold)
	}

	if c.MinVADDuration < 0 {
		return fmt.Errorf("min_vad_duration cannot be negative, got %f", c.MinVADDuration)
	}

	if c.SignificanceFactor < 0 {
		return fmt.Errorf("significance_factor cannot be negative, got %f", c.SignificanceFactor)
	}

	return nil
}

// Result describes one under-covered speech interval.
type Result struct {
	VADStart        float64 `json:"vad_start"`
	VADEnd          float64 `json:"vad_end"`
	VADDuration     float64 `json:"vad_duration"`
	CoveredDuration float64 `json:"covered_duration"`
	CoverageRatio   float64 `json:"coverage_ratio"`
}

// Analyze computes the word coverage of every speech interval and returns a
// Result for each interval whose coverage ratio falls strictly below
// threshold. Speech intervals shorter than minDuration are skipped outright.
//
// Word intervals may arrive in any order and may overlap each other; overlap
// between words is not de-duplicated, so simultaneous speech on two channels
// counts twice and the ratio can exceed 1.0. That matches the reference
// behavior and must not be "fixed" here.
func Analyze(speech, words []segment.Interval, threshold, minDuration float64) []Result {
	var flagged []Result

	for _, v := range speech {
		vadDuration := v.Duration()
		if vadDuration < minDuration {
			continue
		}
		if vadDuration <= 0 {
			// minDuration is positive in practice, but a zero-length
			// interval must never reach the division below.
			continue
		}

		covered := 0.0
		for _, w := range words {
			covered += v.Overlap(w)
		}

		ratio := covered / vadDuration
		if ratio < threshold {
			flagged = append(flagged, Result{
				VADStart:        v.Start,
				VADEnd:          v.End,
				VADDuration:     vadDuration,
				CoveredDuration: covered,
				CoverageRatio:   ratio,
			})
		}
	}

	return flagged
}

// coveredSorted computes the same covered duration as the all-pairs scan in
// Analyze over words pre-sorted by start time, stopping at the first word
// that begins after the speech interval ends. Coverage is additive over words
// (overlaps double-count), so clipped word durations are summed rather than
// an active set being tracked. Kept as the upgrade path for large corpora and
// cross-checked against Analyze in tests.
func coveredSorted(v segment.Interval, sortedWords []segment.Interval) float64 {
	end := sort.Search(len(sortedWords), func(i int) bool {
		return sortedWords[i].Start >= v.End
	})

	covered := 0.0
	for _, w := range sortedWords[:end] {
		covered += v.Overlap(w)
	}
	return covered
}

// Filter applies the significance floor to flagged intervals. An interval is
// kept only when its whole duration strictly exceeds significanceFactor.
//
// The measure is deliberately the full speech-interval duration, not the
// uncovered remainder: the filter asks "was the under-covered speech event
// itself long enough to matter", mirroring the reference system.
func Filter(results []Result, significanceFactor float64) (bool, []Result) {
	kept := make([]Result, 0, len(results))
	for _, r := range results {
		if r.VADEnd-r.VADStart > significanceFactor {
			kept = append(kept, r)
		}
	}
	return len(kept) > 0, kept
}

// Detector is the gap-detection entry point. It is pure: Detect performs no
// I/O, holds no state between calls, and is safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector validates the configuration and returns a Detector.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	return &Detector{cfg: cfg}, nil
}

// Config returns the thresholds the detector was built with.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect reconciles VAD speech intervals against transcript word intervals
// and reports speech that is likely missing from the transcript. It returns
// true when at least one significant under-covered interval remains after
// filtering, along with those intervals.
func (d *Detector) Detect(speech, words []segment.Interval) (bool, []Result) {
	flagged := Analyze(speech, words, d.cfg.CoverageThreshold, d.cfg.MinVADDuration)
	return Filter(flagged, d.cfg.SignificanceFactor)
}
