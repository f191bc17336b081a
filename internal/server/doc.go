// Package server implements the HTTP API for the gap-detection service.
// It accepts recording uploads for analysis and provides monitoring and
// management endpoints.
package server
