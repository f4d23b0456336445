// Package logger provides a structured logging interface for the scraper.
//
// It wraps the zerolog library to provide a clean API with support for:
// - Multiple log levels (Debug, Info, Warn, Error)
// - Structured logging with fields
// - Pretty console output with colors
// - File output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "reelscraper/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &logger.Config{
//	    Level: "info",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	log := logger.GetLogger()
//	log.Info("Application started")
//	log.WithField("strategy", "api").Info("strategy selected")
//	log.WithError(err).Error("fetch failed")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "orchestrator")
//
//	// Use structured logging
//	log.InfoWithFields("run complete", map[string]interface{}{
//	    "records":  42,
//	    "duration": time.Second * 5,
//	})
package logger
