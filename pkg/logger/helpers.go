package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogWorkflowStart logs when a workflow starts
func LogWorkflowStart(l Logger, workflow string, fields map[string]interface{}) {
	l = l.WithField("workflow", workflow)
	if len(fields) > 0 {
		l = l.WithFields(fields)
	}
	l.Info("Workflow started")
}

// LogWorkflowStop logs when a workflow stops, with err set when it aborted
func LogWorkflowStop(l Logger, workflow string, elapsed time.Duration, err error) {
	l = l.WithFields(map[string]interface{}{
		"workflow": workflow,
		"elapsed":  elapsed,
	})
	if err != nil {
		l.WithError(err).Error("Workflow aborted")
		return
	}
	l.Info("Workflow finished")
}

// LogCountryResult logs the outcome of one query/country submission
func LogCountryResult(l Logger, query, code string, elapsed, average time.Duration, err error) {
	fields := map[string]interface{}{
		"query":   query,
		"country": code,
		"elapsed": elapsed,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("Country submission failed", fields)
		return
	}
	fields["average"] = average
	l.InfoWithFields("Country submitted", fields)
}

// LogTargetResult logs the outcome of one download attempt
func LogTargetResult(l Logger, page int, targetID, outcome string) {
	fields := map[string]interface{}{
		"page":    page,
		"target":  targetID,
		"outcome": outcome,
	}
	switch outcome {
	case "DOWNLOADED":
		l.InfoWithFields("Target downloaded", fields)
	case "SKIPPED":
		l.WarnWithFields("Target skipped by portal", fields)
	default:
		l.ErrorWithFields("Target download failed", fields)
	}
}

// LogPacing logs a pause between portal actions
func LogPacing(l Logger, streak int, delay time.Duration, long bool) {
	fields := map[string]interface{}{
		"streak": streak,
		"delay":  delay,
	}
	if long {
		l.InfoWithFields("Cooling down", fields)
		return
	}
	l.DebugWithFields("Pausing", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
