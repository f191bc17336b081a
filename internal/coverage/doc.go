// Package coverage implements the interval-coverage reconciliation at the heart
// of missing-transcript detection. It compares VAD speech intervals against
// transcript word intervals, flags speech that has too little word coverage,
// and filters out flagged segments too short to be a real transcription defect.
package coverage
