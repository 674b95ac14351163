// Package logger provides a structured logging interface for the pubproxy client.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "pubproxy/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("fetch started")
//	logger.WithField("amount", 5).Info("proxies requested")
//	logger.WithError(err).Error("fetch failed")
//
// A TestLogger implementation is provided for asserting on log output
// in tests without writing anywhere.
package logger
