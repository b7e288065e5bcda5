package logger

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a logger implementation for testing that captures all log messages
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   bytes.Buffer
	zerolog  zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{zerolog: zerolog.Nop()}
}

func (l *TestLogger) scope() *scopedTestLogger {
	return &scopedTestLogger{root: l}
}

func (l *TestLogger) Debug(msg string) { l.scope().Debug(msg) }
func (l *TestLogger) Info(msg string)  { l.scope().Info(msg) }
func (l *TestLogger) Warn(msg string)  { l.scope().Warn(msg) }
func (l *TestLogger) Error(msg string) { l.scope().Error(msg) }
func (l *TestLogger) Fatal(msg string) { l.scope().Fatal(msg) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.scope().DebugWithFields(msg, fields)
}
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.scope().InfoWithFields(msg, fields)
}
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.scope().WarnWithFields(msg, fields)
}
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.scope().ErrorWithFields(msg, fields)
}
func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.scope().FatalWithFields(msg, fields)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.scope().WithField(key, value)
}
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return l.scope().WithFields(fields)
}
func (l *TestLogger) WithError(err error) Logger         { return l.scope().WithError(err) }
func (l *TestLogger) WithContext(ctx context.Context) Logger { return l }
func (l *TestLogger) GetZerolog() *zerolog.Logger        { return &l.zerolog }

func (l *TestLogger) record(m LogMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, m)
	fmt.Fprintf(&l.buffer, "[%s] %s", m.Level, m.Message)
	if len(m.Fields) > 0 {
		fmt.Fprintf(&l.buffer, " fields=%v", m.Fields)
	}
	if m.Error != nil {
		fmt.Fprintf(&l.buffer, " error=%v", m.Error)
	}
	l.buffer.WriteByte('\n')
}

// GetMessages returns a copy of all captured log messages
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	var filtered []LogMessage
	for _, msg := range l.GetMessages() {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged
func (l *TestLogger) HasMessage(text string) bool {
	for _, msg := range l.GetMessages() {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasMessageContaining checks if any logged message contains substr
func (l *TestLogger) HasMessageContaining(substr string) bool {
	for _, msg := range l.GetMessages() {
		if strings.Contains(msg.Message, substr) {
			return true
		}
	}
	return false
}

// HasError checks if an error was logged
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear clears all captured messages
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
	l.buffer.Reset()
}

// String returns all log messages as a string
func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buffer.String()
}

// scopedTestLogger carries fields and an error accumulated through With* calls
type scopedTestLogger struct {
	root   *TestLogger
	fields map[string]interface{}
	err    error
}

func (s *scopedTestLogger) emit(level, msg string, extra map[string]interface{}) {
	var fields map[string]interface{}
	if len(s.fields) > 0 || len(extra) > 0 {
		fields = s.merge(extra)
	}
	s.root.record(LogMessage{Level: level, Message: msg, Fields: fields, Error: s.err})
}

func (s *scopedTestLogger) merge(extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(s.fields)+len(extra))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

func (s *scopedTestLogger) Debug(msg string) { s.emit("DEBUG", msg, nil) }
func (s *scopedTestLogger) Info(msg string)  { s.emit("INFO", msg, nil) }
func (s *scopedTestLogger) Warn(msg string)  { s.emit("WARN", msg, nil) }
func (s *scopedTestLogger) Error(msg string) { s.emit("ERROR", msg, nil) }
func (s *scopedTestLogger) Fatal(msg string) { s.emit("FATAL", msg, nil) }

func (s *scopedTestLogger) DebugWithFields(msg string, f map[string]interface{}) {
	s.emit("DEBUG", msg, f)
}
func (s *scopedTestLogger) InfoWithFields(msg string, f map[string]interface{}) {
	s.emit("INFO", msg, f)
}
func (s *scopedTestLogger) WarnWithFields(msg string, f map[string]interface{}) {
	s.emit("WARN", msg, f)
}
func (s *scopedTestLogger) ErrorWithFields(msg string, f map[string]interface{}) {
	s.emit("ERROR", msg, f)
}
func (s *scopedTestLogger) FatalWithFields(msg string, f map[string]interface{}) {
	s.emit("FATAL", msg, f)
}

func (s *scopedTestLogger) WithField(key string, value interface{}) Logger {
	return s.WithFields(map[string]interface{}{key: value})
}

func (s *scopedTestLogger) WithFields(fields map[string]interface{}) Logger {
	return &scopedTestLogger{root: s.root, fields: s.merge(fields), err: s.err}
}

func (s *scopedTestLogger) WithError(err error) Logger {
	return &scopedTestLogger{root: s.root, fields: s.fields, err: err}
}

func (s *scopedTestLogger) WithContext(ctx context.Context) Logger { return s }
func (s *scopedTestLogger) GetZerolog() *zerolog.Logger          { return &s.root.zerolog }
