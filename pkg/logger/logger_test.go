package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"witsbot/pkg/config"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid log level", cfg: &config.LoggingConfig{Level: "invalid"}, wantErr: true},
		{name: "file output in nested dir", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(tmpDir, "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
			if tt.cfg.File != "" {
				_, statErr := os.Stat(tt.cfg.File)
				assert.NoError(t, statErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"chatty", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	child := log.WithField("query", "Tariff").WithFields(map[string]interface{}{
		"country": "DEU",
		"elapsed": 1500 * time.Millisecond,
	})
	child.Info("submitted")

	out := buf.String()
	assert.Contains(t, out, `"query":"Tariff"`)
	assert.Contains(t, out, `"country":"DEU"`)
	assert.Contains(t, out, `"elapsed":"1.5s"`)

	buf.Reset()
	log.Info("parent untouched")
	assert.NotContains(t, buf.String(), "query")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WithError(errors.New("login timed out")).Error("session lost")
	assert.Contains(t, buf.String(), "login timed out")

	assert.Same(t, log, log.WithError(nil))
}

func TestFileOutputAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "witsbot.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0644))

	require.NoError(t, Initialize(&config.LoggingConfig{Level: "info", File: path}))
	GetLogger().Info("second run")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "previous run", lines[0])
	assert.Contains(t, lines[1], "second run")
	assert.Contains(t, lines[1], `"app":"witsbot"`)
}

func TestDomainHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogTargetResult(tl, 3, "1042", "DOWNLOADED")
	LogTargetResult(tl, 3, "1043", "SKIPPED")
	LogTargetResult(tl, 3, "1044", "ERROR")
	LogCountryResult(tl, "Tariff", "DEU", time.Second, time.Second, errors.New("proceed button missing"))
	LogWorkflowStop(tl, "download", time.Minute, nil)

	assert.Len(t, tl.GetMessagesByLevel("INFO"), 2)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	errs := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 2)
	assert.Equal(t, "1044", errs[0].Fields["target"])
	assert.EqualError(t, errs[1].Error, "proceed button missing")
}

func TestTestLoggerScopes(t *testing.T) {
	tl := NewTestLogger()

	scoped := tl.WithField("page", 2).WithError(errors.New("boom")).WithField("target", "7")
	scoped.WarnWithFields("retrying", map[string]interface{}{"attempt": 1})

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, 2, msgs[0].Fields["page"])
	assert.Equal(t, "7", msgs[0].Fields["target"])
	assert.Equal(t, 1, msgs[0].Fields["attempt"])
	assert.EqualError(t, msgs[0].Error, "boom")
	assert.True(t, tl.HasMessageContaining("retry"))
	assert.Contains(t, tl.String(), "[WARN] retrying")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.WithField("a", 1).WithError(errors.New("x")).Error("ignored")
	assert.NotNil(t, log.GetZerolog())
}
