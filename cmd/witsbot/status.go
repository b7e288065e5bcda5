package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"witsbot/pkg/checkpoint"
	"witsbot/pkg/config"
	"witsbot/pkg/logger"
	"witsbot/pkg/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show progress recorded in the checkpoint files",
	Long: `Summarise the checkpoint files under the output directory: per query, how
many countries are done, failed and left, and for downloads the next page
and how many results were downloaded, skipped or failed.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	defer logger.Close()

	store := checkpoint.NewStore(cfg.Output.Directory, logger.GetLogger())
	queries, err := queryStatus(store, cfg)
	if err != nil {
		return err
	}
	download, err := downloadStatus(store)
	if err != nil {
		return err
	}

	ui.PrintInfo("Checkpoints", store.Root())
	if len(queries) > 0 {
		fmt.Println(ui.RenderQueryTable(queries))
	}
	fmt.Println(ui.RenderDownloadTable(download))
	return nil
}

func queryStatus(store *checkpoint.Store, cfg *config.Config) ([]ui.QueryStatus, error) {
	rows := make([]ui.QueryStatus, 0, len(cfg.QueryNames))
	for _, query := range cfg.QueryNames {
		done, err := store.Load(checkpoint.QueryDone(query))
		if err != nil {
			return nil, err
		}
		failed, err := store.Load(checkpoint.QueryFailed(query))
		if err != nil {
			return nil, err
		}

		row := ui.QueryStatus{Query: query}
		for code := range cfg.ISO3ToCountry {
			switch {
			case done.Has(code):
				row.Done++
			case failed.Has(code):
				row.Failed++
				row.Remaining++
			default:
				row.Remaining++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func downloadStatus(store *checkpoint.Store) (ui.DownloadStatus, error) {
	var s ui.DownloadStatus
	cursor, err := store.LoadCursor(checkpoint.DonePages)
	if err != nil {
		return s, err
	}
	s.NextPage = cursor

	for _, c := range []struct {
		ch  checkpoint.Channel
		out *int
	}{
		{checkpoint.DoneTargets, &s.Downloaded},
		{checkpoint.SkippedTargets, &s.Skipped},
		{checkpoint.FailedTargets, &s.Failed},
	} {
		stats, err := store.Stats(c.ch)
		if err != nil {
			return s, err
		}
		*c.out = stats.Distinct
	}
	return s, nil
}
