// Package vad provides Voice Activity Detection using the Silero VAD ONNX
// model. It wraps the silero-vad-go speech detector and normalizes its output
// into time-ordered speech intervals.
package vad
