// Package transcription implements the HTTP client for the speech-to-text API.
// It submits whole recordings for multichannel transcription with per-word
// timestamps, implements retry logic with exponential backoff, and manages
// rate limiting.
package transcription
