// Package audio handles loading and decoding of call recordings. It decodes
// WAV files into normalized float32 PCM for the VAD collaborator, downmixing
// multi-channel recordings to mono, and keeps the raw file bytes for the
// transcription upload.
package audio
