// Package pipeline wires the collaborators together: it loads a recording,
// obtains speech intervals from the VAD detector and word timestamps from the
// transcription service, and runs coverage analysis over them. Each run is
// independent and analyses of different recordings can proceed in parallel.
package pipeline
