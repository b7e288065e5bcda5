// Package logger provides structured logging for witsbot.
//
// It wraps zerolog behind a small Logger interface. Console output is
// colourised; when a log file is configured every line is also appended to it,
// so each bot run leaves a trail next to its checkpoint files.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{
//	    Level: "info",
//	    File:  "logs/witsbot.log",
//	})
//	defer logger.Close()
//
//	logger.WithField("query", "Tariff 2019").Info("Query started")
//
// Workflow code receives a Logger explicitly and uses the domain helpers:
//
//	logger.LogCountryResult(log, query, "DEU", elapsed, average, nil)
//	logger.LogTargetResult(log, page, "1042", "SKIPPED")
//
// Tests use NewTestLogger to capture messages, or NewNopLogger to discard them.
package logger
