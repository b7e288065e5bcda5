package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"witsbot/pkg/checkpoint"
	"witsbot/pkg/config"
	"witsbot/pkg/logger"
	"witsbot/pkg/ui"
)

func TestQueryStatus(t *testing.T) {
	store := checkpoint.NewStore(t.TempDir(), logger.NewNopLogger())
	cfg := config.DefaultConfig()
	cfg.QueryNames = config.QueryNames{"Q1", "Q2"}
	cfg.ISO3ToCountry = map[string]string{"AUS": "Australia", "DEU": "Germany", "FRA": "France"}

	require.NoError(t, store.Append(checkpoint.QueryDone("Q1"), "AUS"))
	require.NoError(t, store.Append(checkpoint.QueryFailed("Q1"), "DEU"))
	require.NoError(t, store.Append(checkpoint.QueryFailed("Q1"), "AUS"))

	rows, err := queryStatus(store, cfg)
	require.NoError(t, err)
	assert.Equal(t, []ui.QueryStatus{
		{Query: "Q1", Done: 1, Failed: 1, Remaining: 2},
		{Query: "Q2", Done: 0, Failed: 0, Remaining: 3},
	}, rows)
}

func TestDownloadStatus(t *testing.T) {
	store := checkpoint.NewStore(t.TempDir(), logger.NewNopLogger())

	s, err := downloadStatus(store)
	require.NoError(t, err)
	assert.Equal(t, ui.DownloadStatus{NextPage: 1}, s)

	require.NoError(t, store.AppendCursor(checkpoint.DonePages, 4))
	require.NoError(t, store.Append(checkpoint.DoneTargets, "a1"))
	require.NoError(t, store.Append(checkpoint.DoneTargets, "a2"))
	require.NoError(t, store.Append(checkpoint.SkippedTargets, "a3"))
	require.NoError(t, store.Append(checkpoint.FailedTargets, "a4"))
	require.NoError(t, store.Append(checkpoint.FailedTargets, "a4"))

	s, err = downloadStatus(store)
	require.NoError(t, err)
	assert.Equal(t, ui.DownloadStatus{NextPage: 4, Downloaded: 2, Skipped: 1, Failed: 1}, s)
}

func TestRunFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().BoolVar(&runQuery, "query", false, "")
	cmd.Flags().BoolVar(&runDownload, "download", false, "")
	cmd.Flags().BoolVar(&headless, "headless", true, "")
	cmd.Flags().StringVar(&outputDir, "output", "", "")
	cmd.Flags().IntVar(&maxPages, "max-pages", -1, "")
	cmd.Flags().StringSliceVar(&queryNames, "query-name", nil, "")

	assert.Empty(t, runFlags(cmd), "unset flags leave the config alone")

	require.NoError(t, cmd.ParseFlags([]string{"--download", "--headless=false", "--max-pages", "0", "--query-name", "A", "--query-name", "B"}))
	assert.Equal(t, map[string]interface{}{
		"download-query": true,
		"headless":       false,
		"max-pages":      0,
		"query-name":     []string{"A", "B"},
	}, runFlags(cmd))
}
