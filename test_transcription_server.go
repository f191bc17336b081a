//go:build ignore

// Standalone mock transcription endpoint for manual end-to-end testing
// without API credentials. It answers every POST with a fixed two-channel
// word list shaped like the real service's response.
//
// Run with: go run test_transcription_server.go
package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

type word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

type alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Words      []word  `json:"words"`
}

type channel struct {
	Alternatives []alternative `json:"alternatives"`
}

type response struct {
	Metadata struct {
		Duration float64 `json:"duration"`
		Channels int     `json:"channels"`
	} `json:"metadata"`
	Results struct {
		Channels []channel `json:"channels"`
	} `json:"results"`
}

func listenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	size, err := io.Copy(io.Discard, r.Body)
	if err != nil {
		http.Error(w, "Failed to read audio", http.StatusBadRequest)
		return
	}

	log.Printf("Received audio: %d bytes, multichannel=%s, model=%s",
		size, r.URL.Query().Get("multichannel"), r.URL.Query().Get("model"))

	// Words cover roughly the first half of a short test call, so a
	// recording with speech in the second half produces a gap verdict.
	var resp response
	resp.Metadata.Duration = 30.0
	resp.Metadata.Channels = 2
	resp.Results.Channels = []channel{
		{Alternatives: []alternative{{
			Transcript: "hello thanks for calling how can i help",
			Confidence: 0.97,
			Words: []word{
				{Word: "hello", Start: 0.4, End: 0.9, Confidence: 0.99},
				{Word: "thanks", Start: 1.0, End: 1.4, Confidence: 0.98},
				{Word: "for", Start: 1.4, End: 1.6, Confidence: 0.97},
				{Word: "calling", Start: 1.6, End: 2.2, Confidence: 0.98},
				{Word: "how", Start: 2.5, End: 2.8, Confidence: 0.96},
				{Word: "can", Start: 2.8, End: 3.0, Confidence: 0.95},
				{Word: "i", Start: 3.0, End: 3.1, Confidence: 0.95},
				{Word: "help", Start: 3.1, End: 3.6, Confidence: 0.97},
			},
		}}},
		{Alternatives: []alternative{{
			Transcript: "hi yes",
			Confidence: 0.94,
			Words: []word{
				{Word: "hi", Start: 4.1, End: 4.4, Confidence: 0.95},
				{Word: "yes", Start: 4.6, End: 5.0, Confidence: 0.93},
			},
		}}},
	}

	// Simulate processing latency
	time.Sleep(150 * time.Millisecond)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func main() {
	http.HandleFunc("/v1/listen", listenHandler)
	log.Println("Mock transcription server listening on :9090 (POST /v1/listen)")
	log.Fatal(http.ListenAndServe(":9090", nil))
}
