// Package segment defines the common time-interval representation shared by the
// VAD and transcription collaborators. It normalizes per-channel word timestamps
// into a single time-ordered sequence with 0.1s resolution.
package segment
