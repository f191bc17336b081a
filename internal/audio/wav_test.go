package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV writes a 16-bit PCM WAV file with the given interleaved samples.
func writeTestWAV(t *testing.T, path string, samples []int, sampleRate, channels int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write test WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close encoder: %v", err)
	}
}

func TestLoadWAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")

	// One second of constant half-scale signal.
	sampleRate := 8000
	samples := make([]int, sampleRate)
	for i := range samples {
		samples[i] = 16384
	}
	writeTestWAV(t, path, samples, sampleRate, 1)

	rec, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV failed: %v", err)
	}

	if rec.SampleRate != sampleRate {
		t.Errorf("SampleRate = %d, want %d", rec.SampleRate, sampleRate)
	}
	if rec.Channels != 1 {
		t.Errorf("Channels = %d, want 1", rec.Channels)
	}
	if len(rec.Mono) != sampleRate {
		t.Errorf("len(Mono) = %d, want %d", len(rec.Mono), sampleRate)
	}
	if math.Abs(rec.Duration-1.0) > 0.01 {
		t.Errorf("Duration = %v, want ~1.0", rec.Duration)
	}
	if len(rec.Raw) == 0 {
		t.Error("Raw bytes not retained")
	}
	if rec.Path != path {
		t.Errorf("Path = %q, want %q", rec.Path, path)
	}

	// Half-scale int16 should normalize to roughly 0.5.
	if got := rec.Mono[100]; math.Abs(float64(got)-0.5) > 0.01 {
		t.Errorf("Mono[100] = %v, want ~0.5", got)
	}
}

func TestLoadWAVStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")

	// 100 interleaved stereo frames: left at full scale, right silent.
	frames := 100
	samples := make([]int, frames*2)
	for i := 0; i < frames; i++ {
		samples[i*2] = 32767
		samples[i*2+1] = 0
	}
	writeTestWAV(t, path, samples, 16000, 2)

	rec, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV failed: %v", err)
	}

	if rec.Channels != 2 {
		t.Errorf("Channels = %d, want 2", rec.Channels)
	}
	if len(rec.Mono) != frames {
		t.Fatalf("len(Mono) = %d, want %d", len(rec.Mono), frames)
	}

	// Average of full scale and silence is roughly half scale.
	if got := rec.Mono[10]; math.Abs(float64(got)-0.5) > 0.01 {
		t.Errorf("Mono[10] = %v, want ~0.5", got)
	}
}

func TestLoadWAVMissingFile(t *testing.T) {
	if _, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("LoadWAV accepted a missing file")
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, err := DecodeWAV([]byte("definitely not a RIFF container")); err == nil {
		t.Error("DecodeWAV accepted non-WAV data")
	}
}

func TestDownmixDropsPartialFrame(t *testing.T) {
	// Five samples across two channels: the trailing half frame is dropped.
	mono := downmix([]float32{1, 0, 1, 0, 1}, 2)
	if len(mono) != 2 {
		t.Errorf("len(mono) = %d, want 2", len(mono))
	}
}
