package segment

import (
	"math"
	"testing"
)

func TestIntervalDuration(t *testing.T) {
	iv := Interval{Start: 1.5, End: 4.0}
	if got := iv.Duration(); got != 2.5 {
		t.Errorf("Duration() = %v, want 2.5", got)
	}
}

func TestIntervalOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    Interval
		b    Interval
		want float64
	}{
		{
			name: "partial overlap",
			a:    Interval{Start: 0.0, End: 5.0},
			b:    Interval{Start: 3.0, End: 8.0},
			want: 2.0,
		},
		{
			name: "containment",
			a:    Interval{Start: 0.0, End: 10.0},
			b:    Interval{Start: 2.0, End: 4.0},
			want: 2.0,
		},
		{
			name: "no overlap",
			a:    Interval{Start: 0.0, End: 1.0},
			b:    Interval{Start: 2.0, End: 3.0},
			want: 0,
		},
		{
			name: "touching endpoints",
			a:    Interval{Start: 0.0, End: 1.0},
			b:    Interval{Start: 1.0, End: 2.0},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlap(tt.b); got != tt.want {
				t.Errorf("Overlap() = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := tt.b.Overlap(tt.a); got != tt.want {
				t.Errorf("reversed Overlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.04, 1.0},
		{1.05, 1.1},
		{1.14999, 1.1},
		{0.0, 0.0},
		{12.34, 12.3},
	}

	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMergeWordsSortsAcrossChannels(t *testing.T) {
	channelZero := []Word{
		{Text: "hello", Channel: 0, Start: 0.52, End: 0.98},
		{Text: "there", Channel: 0, Start: 3.01, End: 3.49},
	}
	channelOne := []Word{
		{Text: "hi", Channel: 1, Start: 1.24, End: 1.71},
	}

	merged := MergeWords(channelZero, channelOne)
	if len(merged) != 3 {
		t.Fatalf("MergeWords returned %d intervals, want 3", len(merged))
	}

	// Interleaved by start time, timestamps rounded to 0.1s.
	want := []Interval{
		{Start: 0.5, End: 1.0},
		{Start: 1.2, End: 1.7},
		{Start: 3.0, End: 3.5},
	}
	for i, iv := range merged {
		if iv != want[i] {
			t.Errorf("merged[%d] = %+v, want %+v", i, iv, want[i])
		}
	}
}

func TestMergeWordsKeepsOverlappingWords(t *testing.T) {
	// Simultaneous speech on both channels: both words survive the merge.
	channelZero := []Word{{Text: "yes", Channel: 0, Start: 1.0, End: 2.0}}
	channelOne := []Word{{Text: "right", Channel: 1, Start: 1.5, End: 2.5}}

	merged := MergeWords(channelZero, channelOne)
	if len(merged) != 2 {
		t.Fatalf("MergeWords returned %d intervals, want 2", len(merged))
	}
}

func TestMergeWordsStableTies(t *testing.T) {
	channelZero := []Word{{Text: "a", Channel: 0, Start: 1.0, End: 1.4}}
	channelOne := []Word{{Text: "b", Channel: 1, Start: 1.0, End: 1.2}}

	merged := MergeWords(channelZero, channelOne)
	if merged[0].End != 1.4 || merged[1].End != 1.2 {
		t.Errorf("ties did not preserve concatenation order: %+v", merged)
	}
}

func TestMergeWordsEmpty(t *testing.T) {
	if got := MergeWords(); len(got) != 0 {
		t.Errorf("MergeWords() = %v, want empty", got)
	}
	if got := MergeWords(nil, nil); len(got) != 0 {
		t.Errorf("MergeWords(nil, nil) = %v, want empty", got)
	}
}

func TestSanitize(t *testing.T) {
	intervals := []Interval{
		{Start: 0.0, End: 1.0},
		{Start: 2.0, End: 1.5},              // end before start
		{Start: math.NaN(), End: 3.0},       // NaN start
		{Start: 4.0, End: math.Inf(1)},      // Inf end
		{Start: -1.0, End: 2.0},             // negative start
		{Start: 5.0, End: 5.0},              // zero duration is allowed
	}

	kept, dropped := Sanitize(intervals)
	if dropped != 4 {
		t.Errorf("Sanitize dropped %d, want 4", dropped)
	}
	if len(kept) != 2 {
		t.Fatalf("Sanitize kept %d, want 2", len(kept))
	}
	if kept[0] != (Interval{Start: 0.0, End: 1.0}) || kept[1] != (Interval{Start: 5.0, End: 5.0}) {
		t.Errorf("Sanitize kept wrong intervals: %+v", kept)
	}
}

func TestSortByStart(t *testing.T) {
	intervals := []Interval{
		{Start: 5.0, End: 6.0},
		{Start: 1.0, End: 2.0},
		{Start: 3.0, End: 4.0},
	}
	SortByStart(intervals)
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start < intervals[i-1].Start {
			t.Fatalf("intervals not sorted: %+v", intervals)
		}
	}
}
