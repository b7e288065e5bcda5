package main

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"witsbot/pkg/logger"
	"witsbot/pkg/supervisor"
	"witsbot/pkg/ui"
)

var (
	superviseInterval time.Duration
	superviseGrace    time.Duration
)

var superviseCmd = &cobra.Command{
	Use:   "supervise [-- run flags]",
	Short: "Keep relaunching 'witsbot run' on a fixed interval",
	Long: `Start 'witsbot run' and restart it every interval with a fresh browser.

A worker still running when its interval ends is interrupted, then killed
after the grace period. Arguments after -- are passed to every run.`,
	Example: `  # Restart every 30 minutes (the default)
  witsbot supervise

  # Restart every 10 minutes, downloading only
  witsbot supervise --interval 10m -- --download --query=false`,
	RunE: runSupervise,
}

func init() {
	rootCmd.AddCommand(superviseCmd)
	superviseCmd.Flags().DurationVar(&superviseInterval, "interval", 0, "time each run is allowed (default from config, 30m)")
	superviseCmd.Flags().DurationVar(&superviseGrace, "grace", 0, "time to wait after interrupting a run before killing it (default from config, 5s)")
}

func runSupervise(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	defer logger.Close()

	interval := cfg.Supervisor.Interval
	if superviseInterval > 0 {
		interval = superviseInterval
	}
	grace := cfg.Supervisor.Grace
	if superviseGrace > 0 {
		grace = superviseGrace
	}

	executable, err := os.Executable()
	if err != nil {
		executable = os.Args[0]
	}
	workerArgs := []string{"run"}
	if configFile != "" {
		workerArgs = append(workerArgs, "--config", configFile)
	}
	if logLevel != "" {
		workerArgs = append(workerArgs, "--log-level", logLevel)
	}
	workerArgs = append(workerArgs, args...)

	sup := &supervisor.Supervisor{
		Interval: interval,
		Grace:    grace,
		Logger:   logger.GetLogger(),
		Command: func(ctx context.Context) *exec.Cmd {
			c := exec.Command(executable, workerArgs...)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			return c
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(map[string]interface{}{
		"interval": interval.String(),
		"grace":    grace.String(),
	}).Info("Supervisor starting")
	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		ui.PrintError("Supervisor stopped", err.Error())
		os.Exit(1)
	}
	return nil
}
