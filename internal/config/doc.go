// Package config provides configuration loading and validation for the
// missing-transcript detection service. It handles YAML-based configuration
// with per-section struct validation; malformed configuration is rejected
// at load time rather than clamped.
package config
