package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/pipeline"
)

// Format selects the report rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name from a flag or config value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("format must be 'text' or 'json', got '%s'", s)
	}
}

// Write renders the outcome in the requested format.
func Write(w io.Writer, format Format, outcome *pipeline.Outcome) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, outcome)
	case FormatText:
		return writeText(w, outcome)
	default:
		return fmt.Errorf("unknown report format '%s'", format)
	}
}

// writeText prints one line per detected gap, or a single all-clear line.
func writeText(w io.Writer, outcome *pipeline.Outcome) error {
	if !outcome.HasGaps {
		_, err := fmt.Fprintf(w, "There were no missing transcripts detected in your file %s\n", outcome.File)
		return err
	}

	for _, gap := range outcome.Gaps {
		_, err := fmt.Fprintf(w, "In your file %s, a missing transcript was detected between %g seconds - %g seconds.\n",
			outcome.File, gap.VADStart, gap.VADEnd)
		if err != nil {
			return err
		}
	}
	return nil
}

// writeJSON emits the structured report. The outcome's JSON tags define the
// machine-readable contract.
func writeJSON(w io.Writer, outcome *pipeline.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
