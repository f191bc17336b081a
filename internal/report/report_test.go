package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/coverage"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/pipeline"
)

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"text", "json"} {
		if _, err := ParseFormat(valid); err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat accepted 'yaml'")
	}
}

func TestWriteTextWithGaps(t *testing.T) {
	outcome := &pipeline.Outcome{
		File:    "call.wav",
		HasGaps: true,
		Gaps: []coverage.Result{
			{VADStart: 12.5, VADEnd: 23.0, VADDuration: 10.5, CoveredDuration: 1.0, CoverageRatio: 0.095},
			{VADStart: 40.0, VADEnd: 48.0, VADDuration: 8.0, CoveredDuration: 0.0, CoverageRatio: 0.0},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, FormatText, outcome); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "call.wav") ||
		!strings.Contains(lines[0], "between 12.5 seconds - 23 seconds") {
		t.Errorf("unexpected first line: %s", lines[0])
	}
}

func TestWriteTextNoGaps(t *testing.T) {
	outcome := &pipeline.Outcome{File: "clean.wav"}

	var buf bytes.Buffer
	if err := Write(&buf, FormatText, outcome); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if !strings.Contains(buf.String(), "no missing transcripts detected in your file clean.wav") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	outcome := &pipeline.Outcome{
		File:    "call.wav",
		HasGaps: true,
		Gaps: []coverage.Result{
			{VADStart: 10.0, VADEnd: 20.0, VADDuration: 10.0, CoveredDuration: 2.0, CoverageRatio: 0.2},
		},
		SpeechIntervals: 4,
		WordCount:       120,
	}

	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, outcome); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded["has_missing_transcript"] != true {
		t.Error("has_missing_transcript not set in JSON output")
	}
	if decoded["file"] != "call.wav" {
		t.Errorf("file = %v, want call.wav", decoded["file"])
	}
	gaps, ok := decoded["gaps"].([]interface{})
	if !ok || len(gaps) != 1 {
		t.Fatalf("gaps = %v, want one entry", decoded["gaps"])
	}
	gap := gaps[0].(map[string]interface{})
	if gap["coverage_ratio"] != 0.2 {
		t.Errorf("coverage_ratio = %v, want 0.2", gap["coverage_ratio"])
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Format("csv"), &pipeline.Outcome{}); err == nil {
		t.Error("Write accepted an unknown format")
	}
}
