package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"witsbot/pkg/config"
	"witsbot/pkg/logger"
	"witsbot/pkg/portal"
	"witsbot/pkg/ui"
)

type recordingNotifier struct {
	successes []string
	failures  []string
}

func (n *recordingNotifier) SendSuccess(title, message string) {
	n.successes = append(n.successes, title+": "+message)
}

func (n *recordingNotifier) SendError(title, message string) {
	n.failures = append(n.failures, title+": "+message)
}

func runnerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Directory = t.TempDir()
	cfg.QueryNames = config.QueryNames{"Q1"}
	cfg.ISO3ToCountry = map[string]string{"DEU": "Germany", "FRA": "France"}
	cfg.Pacing.Query.Short, cfg.Pacing.Query.Long = 0, 0
	cfg.Pacing.Download.Short, cfg.Pacing.Download.Long = 0, 0
	return cfg
}

func TestRunnerRunsEnabledWorkflows(t *testing.T) {
	ui.SetQuietMode(true)
	defer ui.SetQuietMode(false)

	cfg := runnerConfig(t)
	cfg.Workflow.ExecuteQuery = true
	cfg.Workflow.DownloadQuery = true
	driver := portal.NewMockDriver(targets("t1", "t2"))
	notifier := &recordingNotifier{}

	r := NewRunner(cfg, driver, notifier, logger.NewNopLogger())
	require.NotNil(t, r.Query)
	require.NotNil(t, r.Download)
	assert.Nil(t, r.Query.Progress, "quiet mode disables progress output")

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"Q1/DEU", "Q1/FRA"}, driver.Submitted)
	assert.Equal(t, []string{"t1", "t2"}, driver.Downloaded)
	assert.Equal(t, []string{
		"Query workflow finished: 1 queries, 2 countries submitted, 0 failed, 0 remaining",
		"Download workflow finished: pages 1-2, 2 downloaded, 0 skipped, 0 failed",
	}, notifier.successes)
	assert.Empty(t, notifier.failures)
}

func TestRunnerDisabledWorkflows(t *testing.T) {
	cfg := runnerConfig(t)
	cfg.Workflow.ExecuteQuery = false
	cfg.Workflow.DownloadQuery = true
	driver := portal.NewMockDriver()

	r := NewRunner(cfg, driver, nil, logger.NewNopLogger())
	assert.Nil(t, r.Query)
	require.NoError(t, r.Run(context.Background()))
	assert.Zero(t, driver.CallCount("SelectQuery"))

	log := logger.NewTestLogger()
	cfg.Workflow.DownloadQuery = false
	require.NoError(t, NewRunner(cfg, driver, nil, log).Run(context.Background()))
	assert.True(t, log.HasMessageContaining("No workflow enabled"))
}

func TestRunnerContinuesAfterAbort(t *testing.T) {
	cfg := runnerConfig(t)
	cfg.Workflow.ExecuteQuery = true
	cfg.Workflow.DownloadQuery = true
	driver := portal.NewMockDriver(targets("t1"))
	driver.Fail("Login", errors.New("captcha shown"))
	notifier := &recordingNotifier{}

	err := NewRunner(cfg, driver, notifier, logger.NewNopLogger()).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query workflow")
	assert.Empty(t, driver.Submitted)
	assert.Equal(t, []string{"t1"}, driver.Downloaded)
	require.Len(t, notifier.failures, 1)
	assert.Contains(t, notifier.failures[0], "Query workflow aborted")
	require.Len(t, notifier.successes, 1)
}
