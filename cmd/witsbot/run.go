package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"witsbot/internal/wits"
	"witsbot/pkg/auth"
	"witsbot/pkg/config"
	"witsbot/pkg/logger"
	"witsbot/pkg/metadata"
	"witsbot/pkg/storage"
	"witsbot/pkg/ui"
	"witsbot/pkg/workflow"
)

var (
	runQuery    bool
	runDownload bool
	headless    bool
	outputDir   string
	maxPages    int
	queryNames  []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enabled workflows once",
	Long: `Run the query workflow and then the download workflow, as enabled in the
configuration or with --query / --download.

Both workflows resume from their checkpoint files. Interrupting a run with
Ctrl+C stops it after the current step; nothing recorded is lost.`,
	Example: `  # Run whatever the config enables
  witsbot run

  # Only download, at most 5 pages, with a visible browser
  witsbot run --download --query=false --max-pages 5 --headless=false

  # Submit two saved queries
  witsbot run --query --query-name "HS6 imports 2019" --query-name "Tariff lines"`,
	Args: cobra.NoArgs,
	RunE: runWorkflows,
}

func init() {
	rootCmd.AddCommand(runCmd)
	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().BoolVar(&runQuery, "query", false, "run the query workflow")
		cmd.Flags().BoolVar(&runDownload, "download", false, "run the download workflow")
		cmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
		cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for checkpoints and downloaded files")
		cmd.Flags().IntVar(&maxPages, "max-pages", -1, "maximum result pages per run (0 for no limit)")
		cmd.Flags().StringSliceVar(&queryNames, "query-name", nil, "saved query to submit (repeatable)")
	}
}

func runFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("query") {
		flags["execute-query"] = runQuery
	}
	if cmd.Flags().Changed("download") {
		flags["download-query"] = runDownload
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if maxPages >= 0 {
		flags["max-pages"] = maxPages
	}
	if len(queryNames) > 0 {
		flags["query-name"] = queryNames
	}
	return flags
}

func runWorkflows(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	defer logger.Close()

	if err := resolveCredentials(cfg); err != nil {
		logger.Error("No portal credentials found")
		ui.PrintError("No portal credentials found", err.Error())
		auth.ShowCredentialHelp(os.Stderr)
		os.Exit(1)
	}
	if cmd.Flags().Changed("notifications") {
		cfg.Notifications.Enabled = notifications
	}

	log := logger.GetLogger()
	log.WithFields(map[string]interface{}{
		"version":  version,
		"query":    cfg.Workflow.ExecuteQuery,
		"download": cfg.Workflow.DownloadQuery,
		"output":   cfg.Output.Directory,
	}).Info("witsbot starting")

	files, err := storage.NewManager(cfg.Output.Directory)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err.Error())
		os.Exit(1)
	}
	if removed, err := metadata.CleanOrphaned(files.GetOutputDir()); err != nil {
		log.WithError(err).Warn("Failed to clean result metadata")
	} else if removed > 0 {
		log.WithField("removed", removed).Info("Removed metadata of deleted result files")
	}
	driver := wits.New(wits.OptionsFromConfig(cfg), files, log)
	defer func() {
		if err := driver.Shutdown(); err != nil {
			log.WithError(err).Warn("Failed to stop browser driver")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := workflow.NewRunner(cfg, driver, ui.NewNotifier(cfg.Notifications.Enabled), log)
	if err := runner.Run(ctx); err != nil {
		log.WithError(err).Error("Run ended with errors")
		ui.PrintWarning("Run ended with errors", err.Error())
		return nil
	}
	ui.PrintSuccess("Run complete")
	return nil
}

// resolveCredentials fills missing credentials from the credential stores
func resolveCredentials(cfg *config.Config) error {
	if cfg.HasCredentials() {
		return nil
	}
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	return auth.Resolve(cfg, manager)
}
