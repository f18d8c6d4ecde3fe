// Package logging provides structured logging for the TRÅDFRI bridge.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filtering.
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
//	logger.Component("dispatcher").Info("accessory updated", "accessory_id", 65537)
//
// # Security
//
// Never log the gateway security code or the pre-shared key. Log the
// identity name instead.
package logging
