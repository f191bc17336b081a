package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/audio"
	"github.com/mattsloan-dg/OAI-missing-transcript-detection/internal/segment"
)

// Client provides HTTP client functionality for transcription API requests
type Client struct {
	config     Config
	httpClient *http.Client
	semaphore  chan struct{} // Rate limiting semaphore

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	totalRetries    uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

// Config contains transcription client configuration
type Config struct {
	Endpoint      string
	APIKey        string
	Model         string
	Language      string
	Keywords      map[string]float64 // keyword -> intent boost
	Timeout       time.Duration
	MaxRetries    int
	MaxConcurrent int
}

// Response mirrors the transcription API response; only the fields the
// detector needs are decoded.
type Response struct {
	RequestID string   `json:"request_id,omitempty"`
	Metadata  Metadata `json:"metadata"`
	Results   Results  `json:"results"`
}

// Metadata carries recording-level information returned by the API
type Metadata struct {
	Duration float64 `json:"duration"`
	Channels int     `json:"channels"`
}

// Results holds the per-channel transcription results
type Results struct {
	Channels []Channel `json:"channels"`
}

// Channel holds the transcription alternatives for one audio channel
type Channel struct {
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one transcription hypothesis with word-level timestamps
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// Word is a recognized word with its timestamps in seconds
type Word struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	SuccessRate     float64       `json:"success_rate"`
	TotalRetries    uint64        `json:"total_retries"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
	ActiveRequests  int           `json:"active_requests"`
}

// NewClient creates a new transcription HTTP client
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	if config.MaxRetries < 0 {
		config.MaxRetries = 3
	}

	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		semaphore:  make(chan struct{}, config.MaxConcurrent),
	}, nil
}

// Transcribe submits a recording for multichannel transcription and returns
// the parsed response with per-word timestamps.
func (c *Client) Transcribe(ctx context.Context, rec *audio.Recording) (*Response, error) {
	if rec == nil || len(rec.Raw) == 0 {
		return nil, fmt.Errorf("recording has no audio data")
	}

	// Acquire semaphore for rate limiting
	select {
	case c.semaphore <- struct{}{}:
		defer func() { <-c.semaphore }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	startTime := time.Now()
	c.incrementTotalRequests()

	requestID := uuid.New().String()

	var lastErr error

	// Retry loop with exponential backoff
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.incrementTotalRetries()

			backoffTime := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			if backoffTime > 30*time.Second {
				backoffTime = 30 * time.Second
			}

			select {
			case <-time.After(backoffTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		response, err := c.doRequest(ctx, rec, requestID)
		if err == nil {
			c.incrementSuccessRequests()
			c.updateAvgResponseTime(time.Since(startTime))
			return response, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			break
		}
	}

	c.incrementFailedRequests()
	return nil, fmt.Errorf("transcription failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// doRequest performs a single HTTP request to the transcription API
func (c *Client) doRequest(ctx context.Context, rec *audio.Recording, requestID string) (*Response, error) {
	endpoint, err := c.buildURL()
	if err != nil {
		return nil, fmt.Errorf("failed to build request URL: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(rec.Raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Token "+c.config.APIKey)
	httpReq.Header.Set("Content-Type", "audio/*")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{status: resp.StatusCode, body: string(respBody)}
	}

	var transcriptionResp Response
	if err := json.Unmarshal(respBody, &transcriptionResp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}
	transcriptionResp.RequestID = requestID

	return &transcriptionResp, nil
}

// buildURL assembles the request URL with transcription parameters
func (c *Client) buildURL() (string, error) {
	u, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("multichannel", "true")
	if c.config.Model != "" {
		q.Set("model", c.config.Model)
	}
	if c.config.Language != "" {
		q.Set("language", c.config.Language)
	}

	// Keyword boosts are repeated keyword=word:boost parameters. Sorted so
	// the URL is deterministic across runs.
	keywords := make([]string, 0, len(c.config.Keywords))
	for keyword := range c.config.Keywords {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)
	for _, keyword := range keywords {
		q.Add("keywords", fmt.Sprintf("%s:%g", keyword, c.config.Keywords[keyword]))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ChannelWords flattens the response into per-channel word sequences for the
// segment collector. Only the first alternative of each channel is used.
func (r *Response) ChannelWords() [][]segment.Word {
	channels := make([][]segment.Word, 0, len(r.Results.Channels))
	for idx, ch := range r.Results.Channels {
		if len(ch.Alternatives) == 0 {
			channels = append(channels, nil)
			continue
		}

		alt := ch.Alternatives[0]
		words := make([]segment.Word, 0, len(alt.Words))
		for _, w := range alt.Words {
			words = append(words, segment.Word{
				Text:    w.Word,
				Channel: idx,
				Start:   w.Start,
				End:     w.End,
			})
		}
		channels = append(channels, words)
	}
	return channels
}

// apiError is an HTTP-level error from the transcription API
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.status, e.body)
}

// isRetryableError reports whether a failed attempt is worth retrying.
// Client-side errors (4xx other than 429) are permanent; transport errors
// and server-side failures are transient.
func isRetryableError(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.status == http.StatusTooManyRequests {
			return true
		}
		return apiErr.status >= 500
	}
	return true
}

// GetStats returns a snapshot of client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := 0.0
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests)
	}

	return ClientStats{
		TotalRequests:   c.totalRequests,
		SuccessRequests: c.successRequests,
		FailedRequests:  c.failedRequests,
		SuccessRate:     successRate,
		TotalRetries:    c.totalRetries,
		AvgResponseTime: c.avgResponseTime,
		ActiveRequests:  len(c.semaphore),
	}
}

func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementSuccessRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successRequests++
}

func (c *Client) incrementFailedRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
}

func (c *Client) incrementTotalRetries() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRetries++
}

func (c *Client) updateAvgResponseTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.avgResponseTime == 0 {
		c.avgResponseTime = d
		return
	}
	// Exponential moving average with a 0.1 weight on the new sample.
	c.avgResponseTime = time.Duration(0.9*float64(c.avgResponseTime) + 0.1*float64(d))
}
