package segment

import (
	"math"
	"sort"
)

// Interval represents a time range in seconds within a recording.
// Speech intervals (from VAD) and word intervals (from transcription) share
// this shape; only their origin differs.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the interval in seconds.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Overlap returns the length of the overlap between two intervals in seconds,
// or 0 if they do not overlap.
func (i Interval) Overlap(other Interval) float64 {
	start := math.Max(i.Start, other.Start)
	end := math.Min(i.End, other.End)
	if end > start {
		return end - start
	}
	return 0
}

// Word represents a single recognized word from the transcription service,
// tagged with the channel it was recognized on. The text content is carried
// for reporting only; coverage analysis uses the timestamps.
type Word struct {
	Text    string  `json:"word"`
	Channel int     `json:"channel"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Round rounds a timestamp to one decimal place (0.1s resolution). Source
// timestamps jitter below that resolution; rounding before merge keeps the
// ordering stable across runs.
func Round(x float64) float64 {
	return math.Round(x*10) / 10
}

// MergeWords concatenates the per-channel word sequences into a single
// sequence of intervals sorted ascending by start time. Timestamps are
// rounded to 0.1s before the merge. No words are dropped and overlapping
// words from different channels are kept as-is: simultaneous speech on two
// channels counts twice toward coverage.
func MergeWords(channels ...[]Word) []Interval {
	var total int
	for _, ch := range channels {
		total += len(ch)
	}

	merged := make([]Interval, 0, total)
	for _, ch := range channels {
		for _, w := range ch {
			merged = append(merged, Interval{
				Start: Round(w.Start),
				End:   Round(w.End),
			})
		}
	}

	// Stable so that ties keep concatenation order.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})

	return merged
}

// Sanitize drops intervals a collaborator should never produce: NaN or Inf
// endpoints, end before start, negative start. It returns the kept intervals
// and the number dropped so the caller can log the loss.
func Sanitize(intervals []Interval) ([]Interval, int) {
	kept := make([]Interval, 0, len(intervals))
	dropped := 0
	for _, iv := range intervals {
		if !valid(iv) {
			dropped++
			continue
		}
		kept = append(kept, iv)
	}
	return kept, dropped
}

func valid(iv Interval) bool {
	if math.IsNaN(iv.Start) || math.IsNaN(iv.End) {
		return false
	}
	if math.IsInf(iv.Start, 0) || math.IsInf(iv.End, 0) {
		return false
	}
	if iv.Start < 0 || iv.End < iv.Start {
		return false
	}
	return true
}

// SortByStart sorts intervals ascending by start time in place. VAD segments
// arrive in detection order, which is not guaranteed to be time order.
func SortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}
