package workflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"witsbot/pkg/checkpoint"
	"witsbot/pkg/errors"
	"witsbot/pkg/logger"
	"witsbot/pkg/pacing"
	"witsbot/pkg/pager"
	"witsbot/pkg/portal"
	"witsbot/pkg/resume"
)

// DownloadOptions configures the download workflow
type DownloadOptions struct {
	// MaxPagesPerRun stops the run after this many completed pages; 0 means no limit
	MaxPagesPerRun int
	// MaxTargetAttempts is how many ERROR outcomes a target may produce in one page pass
	MaxTargetAttempts int
	// PagerMaxAttempts bounds each pager walk
	PagerMaxAttempts int
}

// DownloadSummary reports the outcome of one download run
type DownloadSummary struct {
	StartPage  int
	EndPage    int
	Pages      int
	Downloaded int
	Skipped    int
	Failed     int
	// SetAside lists targets that exhausted their attempts and were left for a later run
	SetAside []string
	// Finished is true when the run reached the end of the results grid
	Finished bool
	Duration time.Duration
}

// DownloadWorkflow walks the results grid page by page and downloads every
// target not already recorded as downloaded or skipped.
type DownloadWorkflow struct {
	driver  portal.Driver
	store   *checkpoint.Store
	pacer   pacing.Pacer
	policy  resume.Policy
	opts    DownloadOptions
	logger  logger.Logger
	session *sessionKeeper
	walker  *pager.Walker

	streak  int
	summary DownloadSummary
}

// NewDownloadWorkflow creates a download workflow
func NewDownloadWorkflow(driver portal.Driver, store *checkpoint.Store, pacer pacing.Pacer, opts DownloadOptions, log logger.Logger) *DownloadWorkflow {
	if log == nil {
		log = logger.GetLogger()
	}
	if pacer == nil {
		pacer = pacing.Nop{}
	}
	if opts.MaxTargetAttempts <= 0 {
		opts.MaxTargetAttempts = 3
	}
	log = log.WithField("workflow", "download")

	walker := pager.New(driver, log)
	if opts.PagerMaxAttempts > 0 {
		walker.MaxAttempts = opts.PagerMaxAttempts
	}
	return &DownloadWorkflow{
		driver:  driver,
		store:   store,
		pacer:   pacer,
		policy:  resume.AtLeastOnceUntilConfirmed{},
		opts:    opts,
		logger:  log,
		session: &sessionKeeper{driver: driver, logger: log, attempts: 1},
		walker:  walker,
	}
}

// Summary returns the outcome of the last Run
func (w *DownloadWorkflow) Summary() DownloadSummary {
	return w.summary
}

// Run logs in, opens the results grid at the saved page cursor and works
// forward until the grid ends, the page budget is spent, or something fails.
// The cursor only advances once every row of a page has been handled.
func (w *DownloadWorkflow) Run(ctx context.Context) (err error) {
	started := time.Now()
	w.summary = DownloadSummary{}
	w.streak = 0
	defer func() {
		w.summary.Duration = time.Since(started)
		logger.LogWorkflowStop(w.logger, "download", w.summary.Duration, err)
	}()

	page, err := w.store.LoadCursor(checkpoint.DonePages)
	if err != nil {
		return err
	}
	downloaded, err := w.store.Load(checkpoint.DoneTargets)
	if err != nil {
		return err
	}
	skipped, err := w.store.Load(checkpoint.SkippedTargets)
	if err != nil {
		return err
	}
	done := downloaded.Union(skipped)
	setAside := checkpoint.NewSet()

	w.summary.StartPage, w.summary.EndPage = page, page
	logger.LogWorkflowStart(w.logger, "download", map[string]interface{}{
		"start_page": page,
		"known":      done.Len(),
		"max_pages":  w.opts.MaxPagesPerRun,
	})

	if err := w.session.open(ctx); err != nil {
		return err
	}
	defer w.session.close()

	if err := w.driver.Navigate(ctx, w.session.current, portal.DestinationResults); err != nil {
		return errors.Wrap(err, errors.ErrorTypeNavigation, "open results")
	}

	for {
		if w.opts.MaxPagesPerRun > 0 && w.summary.Pages >= w.opts.MaxPagesPerRun {
			w.logger.WithField("pages", w.summary.Pages).Info("Page budget for this run reached")
			break
		}

		if err := w.walker.Goto(ctx, w.session.current, page); err != nil {
			if stderrors.Is(err, pager.ErrPageOutOfRange) {
				w.logger.WithField("page", page).Info("No more result pages")
				w.summary.Finished = true
				break
			}
			return err
		}

		empty, err := w.processPage(ctx, page, done, setAside)
		if err != nil {
			return err
		}
		if empty {
			w.logger.WithField("page", page).Info("Results grid is empty")
			w.summary.Finished = true
			break
		}

		page++
		if err := w.store.AppendCursor(checkpoint.DonePages, page); err != nil {
			return err
		}
		w.summary.Pages++
		w.summary.EndPage = page
		w.logger.WithField("next_page", page).Info("Page complete")
	}

	w.summary.SetAside = setAside.Sorted()
	if len(w.summary.SetAside) > 0 {
		w.logger.WithField("targets", w.summary.SetAside).Warn("Some targets were set aside for a later run")
	}
	return nil
}

// processPage handles one page until no actionable row is left. It re-reads
// the grid after every action because a download may rebuild it.
func (w *DownloadWorkflow) processPage(ctx context.Context, page int, done, setAside checkpoint.Set) (bool, error) {
	attempts := make(map[string]int)
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		rows, err := w.driver.ListGridRows(ctx, w.session.current)
		if err != nil {
			return false, errors.Wrap(err, errors.ErrorTypeInteraction, fmt.Sprintf("read grid page %d", page))
		}
		if first {
			if len(rows) == 0 {
				return true, nil
			}
			w.logger.WithFields(map[string]interface{}{"page": page, "rows": len(rows)}).Debug("Read results grid")
			first = false
		}

		pending := resume.Pending(rows, done, setAside)
		if len(pending) == 0 {
			return false, nil
		}
		target := pending[0]

		outcome := w.driver.TriggerDownload(ctx, w.session.current, target.ID)
		logger.LogTargetResult(w.logger, page, target.ID, outcome.String())

		if w.policy.Confirms(outcome) {
			if err := w.confirm(target.ID, outcome); err != nil {
				return false, err
			}
			done.Add(target.ID)
			w.streak++
		} else {
			w.summary.Failed++
			w.streak = 0
			if err := w.store.Append(checkpoint.FailedTargets, target.ID); err != nil {
				w.logger.WithError(err).Warn("Failed to record failed target")
			}
			attempts[target.ID]++
			if attempts[target.ID] >= w.opts.MaxTargetAttempts {
				setAside.Add(target.ID)
				w.logger.WithFields(map[string]interface{}{
					"page":     page,
					"target":   target.ID,
					"attempts": attempts[target.ID],
				}).Warn("Setting target aside after repeated failures")
			}
		}

		if err := w.pacer.Pause(ctx, w.streak); err != nil {
			return false, err
		}

		// a finished download can send the grid back to its first page
		if outcome == portal.OutcomeDownloaded {
			if err := w.walker.Goto(ctx, w.session.current, page); err != nil {
				return false, err
			}
		}
	}
}

func (w *DownloadWorkflow) confirm(targetID string, outcome portal.Outcome) error {
	ch := checkpoint.DoneTargets
	if outcome == portal.OutcomeSkipped {
		ch = checkpoint.SkippedTargets
	}
	if err := w.store.Append(ch, targetID); err != nil {
		return err
	}
	if outcome == portal.OutcomeSkipped {
		w.summary.Skipped++
	} else {
		w.summary.Downloaded++
	}
	return nil
}
