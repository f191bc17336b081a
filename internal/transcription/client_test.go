package transcription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/audio"
)

const twoChannelResponse = `{
	"metadata": {"duration": 12.5, "channels": 2},
	"results": {
		"channels": [
			{"alternatives": [{
				"transcript": "hello there",
				"confidence": 0.98,
				"words": [
					{"word": "hello", "start": 0.52, "end": 0.98, "confidence": 0.99},
					{"word": "there", "start": 1.04, "end": 1.45, "confidence": 0.97}
				]
			}]},
			{"alternatives": [{
				"transcript": "hi",
				"confidence": 0.95,
				"words": [
					{"word": "hi", "start": 2.1, "end": 2.4, "confidence": 0.95}
				]
			}]}
		]
	}
}`

func testRecording() *audio.Recording {
	return &audio.Recording{
		Path:       "call.wav",
		SampleRate: 16000,
		Channels:   2,
		Duration:   12.5,
		Raw:        []byte("RIFF fake audio payload"),
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "key"}); err == nil {
		t.Error("NewClient accepted empty endpoint")
	}
	if _, err := NewClient(Config{Endpoint: "http://localhost"}); err == nil {
		t.Error("NewClient accepted empty API key")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "http://localhost", APIKey: "key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if c.config.Timeout != 30*time.Second {
		t.Errorf("default Timeout = %v, want 30s", c.config.Timeout)
	}
	if c.config.MaxConcurrent != 10 {
		t.Errorf("default MaxConcurrent = %d, want 10", c.config.MaxConcurrent)
	}
}

func TestTranscribeParsesChannels(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(twoChannelResponse))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		Endpoint: server.URL,
		APIKey:   "secret",
		Model:    "nova-2-phonecall",
		Language: "en",
		Keywords: map[string]float64{"agree": 1.5, "yes": 1.5},
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	resp, err := client.Transcribe(context.Background(), testRecording())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if gotAuth != "Token secret" {
		t.Errorf("Authorization = %q, want 'Token secret'", gotAuth)
	}
	for _, param := range []string{"multichannel=true", "model=nova-2-phonecall", "language=en", "agree%3A1.5"} {
		if !strings.Contains(gotQuery, param) {
			t.Errorf("query %q missing %q", gotQuery, param)
		}
	}

	channels := resp.ChannelWords()
	if len(channels) != 2 {
		t.Fatalf("ChannelWords returned %d channels, want 2", len(channels))
	}
	if len(channels[0]) != 2 || len(channels[1]) != 1 {
		t.Fatalf("word counts = %d/%d, want 2/1", len(channels[0]), len(channels[1]))
	}
	if channels[0][0].Text != "hello" || channels[0][0].Start != 0.52 {
		t.Errorf("channels[0][0] = %+v", channels[0][0])
	}
	if channels[1][0].Channel != 1 {
		t.Errorf("channel tag = %d, want 1", channels[1][0].Channel)
	}
	if resp.Metadata.Duration != 12.5 {
		t.Errorf("Metadata.Duration = %v, want 12.5", resp.Metadata.Duration)
	}
	if resp.RequestID == "" {
		t.Error("RequestID not set")
	}
}

func TestTranscribeNoRetryOnAuthFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, APIKey: "bad", MaxRetries: 3})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Transcribe(context.Background(), testRecording()); err == nil {
		t.Fatal("Transcribe succeeded against a 401 endpoint")
	}

	if got := attempts.Load(); got != 1 {
		t.Errorf("server saw %d attempts, want 1 (4xx must not retry)", got)
	}

	stats := client.GetStats()
	if stats.FailedRequests != 1 || stats.TotalRetries != 0 {
		t.Errorf("stats = %+v, want one failure and no retries", stats)
	}
}

func TestTranscribeRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "temporary failure", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(twoChannelResponse))
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, APIKey: "key", MaxRetries: 1})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	resp, err := client.Transcribe(context.Background(), testRecording())
	if err != nil {
		t.Fatalf("Transcribe failed after retry: %v", err)
	}
	if len(resp.Results.Channels) != 2 {
		t.Errorf("unexpected response after retry: %+v", resp.Results)
	}

	if got := attempts.Load(); got != 2 {
		t.Errorf("server saw %d attempts, want 2", got)
	}

	stats := client.GetStats()
	if stats.TotalRetries != 1 || stats.SuccessRequests != 1 {
		t.Errorf("stats = %+v, want one retry and one success", stats)
	}
}

func TestTranscribeRejectsEmptyRecording(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://localhost", APIKey: "key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Transcribe(context.Background(), &audio.Recording{}); err == nil {
		t.Error("Transcribe accepted a recording with no audio data")
	}
}

func TestTranscribeContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(twoChannelResponse))
	}))
	defer server.Close()

	client, err := NewClient(Config{Endpoint: server.URL, APIKey: "key", MaxRetries: 0})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.Transcribe(ctx, testRecording()); err == nil {
		t.Error("Transcribe ignored context cancellation")
	}
}

func TestChannelWordsEmptyAlternatives(t *testing.T) {
	resp := &Response{Results: Results{Channels: []Channel{{}, {Alternatives: []Alternative{{}}}}}}

	channels := resp.ChannelWords()
	if len(channels) != 2 {
		t.Fatalf("ChannelWords returned %d channels, want 2", len(channels))
	}
	if len(channels[0]) != 0 || len(channels[1]) != 0 {
		t.Errorf("expected empty word lists, got %v", channels)
	}
}
