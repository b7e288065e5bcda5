package workflow

import (
	"context"
	stderrors "errors"
	"fmt"

	"witsbot/pkg/checkpoint"
	"witsbot/pkg/config"
	"witsbot/pkg/logger"
	"witsbot/pkg/pacing"
	"witsbot/pkg/portal"
	"witsbot/pkg/ui"
)

// Notifier receives the end-of-workflow reports
type Notifier interface {
	SendSuccess(title, message string)
	SendError(title, message string)
}

// Runner runs the enabled workflows one after the other
type Runner struct {
	Query    *QueryWorkflow
	Download *DownloadWorkflow
	Notifier Notifier
	Logger   logger.Logger
}

// NewRunner wires both workflows from configuration. Disabled workflows are left nil.
func NewRunner(cfg *config.Config, driver portal.Driver, notifier Notifier, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	store := checkpoint.NewStore(cfg.Output.Directory, log)
	r := &Runner{Notifier: notifier, Logger: log}

	if cfg.Workflow.ExecuteQuery {
		r.Query = NewQueryWorkflow(driver, store, pacing.FromConfig(cfg.Pacing.Query, log), QueryOptions{
			Queries:          cfg.QueryNames,
			Countries:        cfg.ISO3ToCountry,
			ShuffleQueries:   cfg.Ordering.ShuffleQueries,
			ShuffleCountries: cfg.Ordering.ShuffleCountries,
			RestartAttempts:  cfg.Session.RestartAttempts,
		}, log)
		if !ui.IsQuietMode() {
			r.Query.Progress = ui.NewProgress("", 0)
		}
	}
	if cfg.Workflow.DownloadQuery {
		r.Download = NewDownloadWorkflow(driver, store, pacing.FromConfig(cfg.Pacing.Download, log), DownloadOptions{
			MaxPagesPerRun:    cfg.Download.MaxPagesPerRun,
			MaxTargetAttempts: cfg.Download.MaxTargetAttempts,
			PagerMaxAttempts:  cfg.Download.PagerMaxAttempts,
		}, log)
	}
	return r
}

// Run executes the query workflow and then the download workflow. An aborted
// workflow does not stop the next one unless ctx is done. The returned error
// joins every abort.
func (r *Runner) Run(ctx context.Context) error {
	var errs []error

	if r.Query != nil {
		err := r.Query.Run(ctx)
		r.report("Query workflow", querySummaryLine(r.Query.Results()), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("query workflow: %w", err))
		}
	}

	if r.Download != nil && ctx.Err() == nil {
		err := r.Download.Run(ctx)
		r.report("Download workflow", downloadSummaryLine(r.Download.Summary()), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("download workflow: %w", err))
		}
	}

	if r.Query == nil && r.Download == nil {
		r.log().Warn("No workflow enabled; set workflow.execute_query or workflow.download_query")
	}
	return stderrors.Join(errs...)
}

func (r *Runner) log() logger.Logger {
	if r.Logger == nil {
		return logger.GetLogger()
	}
	return r.Logger
}

func (r *Runner) report(title, message string, err error) {
	if r.Notifier == nil {
		return
	}
	if err != nil {
		r.Notifier.SendError(title+" aborted", fmt.Sprintf("%s (%v)", message, err))
		return
	}
	r.Notifier.SendSuccess(title+" finished", message)
}

func querySummaryLine(results []QuerySummary) string {
	var done, failed, remaining int
	for _, r := range results {
		done += r.Done
		failed += r.Failed
		remaining += r.Remaining
	}
	return fmt.Sprintf("%d queries, %d countries submitted, %d failed, %d remaining", len(results), done, failed, remaining)
}

func downloadSummaryLine(s DownloadSummary) string {
	return fmt.Sprintf("pages %d-%d, %d downloaded, %d skipped, %d failed", s.StartPage, s.EndPage, s.Downloaded, s.Skipped, s.Failed)
}
