package audio

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// Recording holds a decoded call recording. Mono carries the downmixed PCM
// used for speech detection; Raw carries the original file bytes, which are
// sent to the transcription service untouched so per-channel word timestamps
// stay aligned with the source.
type Recording struct {
	Path       string
	SampleRate int
	Channels   int
	Duration   float64 // seconds
	Mono       []float32
	Raw        []byte
}

// LoadWAV reads and decodes a WAV file from disk.
func LoadWAV(path string) (*Recording, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file %s: %w", path, err)
	}

	rec, err := DecodeWAV(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio file %s: %w", path, err)
	}

	rec.Path = path
	return rec, nil
}

// DecodeWAV decodes WAV bytes into a Recording.
func DecodeWAV(raw []byte) (*Recording, error) {
	decoder := wav.NewDecoder(bytes.NewReader(raw))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("missing or invalid audio format")
	}

	channels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	floatBuf := buf.AsFloat32Buffer()
	mono := downmix(floatBuf.Data, channels)

	return &Recording{
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   float64(len(mono)) / float64(sampleRate),
		Mono:       mono,
		Raw:        raw,
	}, nil
}

// downmix averages interleaved multi-channel samples into a mono signal.
// Mono input is returned as-is. A trailing partial frame is dropped.
func downmix(interleaved []float32, channels int) []float32 {
	if channels == 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
