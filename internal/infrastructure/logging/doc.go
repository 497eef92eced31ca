// Package logging provides structured logging for the Iris hub.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the hub, its drivers and
// its HTTP surface.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for bench work (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting hub", "port", 3012)
//	logger.With("client_id", id).Warn("send buffer full")
package logging
