package pager

import (
	"context"
	"fmt"

	"witsbot/pkg/errors"
	"witsbot/pkg/logger"
	"witsbot/pkg/portal"
)

// DefaultMaxAttempts bounds the observe/advance loop of a single Goto
const DefaultMaxAttempts = 20

// Pagination failures. All are of type errors.ErrorTypePagination.
var (
	// ErrEmptyWindow means the pager showed no page numbers
	ErrEmptyWindow = errors.New(errors.ErrorTypePagination, "", "pager shows no page numbers")
	// ErrPageOutOfRange means the results end before the target page
	ErrPageOutOfRange = errors.New(errors.ErrorTypePagination, "", "target page is beyond the last page")
	// ErrTargetBehindWindow means the target precedes the visible window and cannot be reached going forward
	ErrTargetBehindWindow = errors.New(errors.ErrorTypePagination, "", "target page is behind the visible window")
	// ErrAttemptsExhausted means the target never became visible within the attempt cap
	ErrAttemptsExhausted = errors.New(errors.ErrorTypePagination, "", "target page not reached within attempt cap")
)

// Pager is the part of the portal driver the walker needs
type Pager interface {
	ObservePager(ctx context.Context, s portal.Session) (portal.PagerState, error)
	ActivatePage(ctx context.Context, s portal.Session, page int) error
	AdvancePageWindow(ctx context.Context, s portal.Session) error
}

// Walker moves a results grid to a target page using only forward moves:
// clicking a visible page number or revealing the next window of numbers.
type Walker struct {
	Pager       Pager
	MaxAttempts int
	Logger      logger.Logger

	advances int
}

// New creates a walker with the default attempt cap
func New(p Pager, log logger.Logger) *Walker {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Walker{Pager: p, MaxAttempts: DefaultMaxAttempts, Logger: log}
}

// Advances reports how many times the last Goto revealed the next window
func (w *Walker) Advances() int {
	return w.advances
}

func (w *Walker) maxAttempts() int {
	if w.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return w.MaxAttempts
}

func (w *Walker) log() logger.Logger {
	if w.Logger == nil {
		return logger.NewNopLogger()
	}
	return w.Logger
}

// Goto brings the grid to page target. Page 1 is the landing page, so targets
// at or below 1 need no action. The loop runs at most MaxAttempts times.
func (w *Walker) Goto(ctx context.Context, s portal.Session, target int) error {
	w.advances = 0
	if target <= 1 {
		return nil
	}

	log := w.log().WithField("target_page", target)
	for attempt := 1; attempt <= w.maxAttempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		state, err := w.Pager.ObservePager(ctx, s)
		if err != nil {
			return errors.Wrap(fmt.Errorf("failed to read pager: %w", err), errors.ErrorTypePagination, "pager.observe")
		}
		if state.Empty() {
			return fmt.Errorf("goto page %d: %w", target, ErrEmptyWindow)
		}

		switch {
		case state.Contains(target):
			log.DebugWithFields("Activating page", map[string]interface{}{
				"attempt":  attempt,
				"advances": w.advances,
			})
			if err := w.Pager.ActivatePage(ctx, s, target); err != nil {
				return errors.Wrap(fmt.Errorf("failed to activate page %d: %w", target, err), errors.ErrorTypePagination, "pager.activate")
			}
			return nil

		case target > state.Max():
			if !state.HasMoreWindow {
				return fmt.Errorf("goto page %d (last visible %d): %w", target, state.Max(), ErrPageOutOfRange)
			}
			log.DebugWithFields("Revealing next pager window", map[string]interface{}{
				"attempt":    attempt,
				"window_max": state.Max(),
			})
			if err := w.Pager.AdvancePageWindow(ctx, s); err != nil {
				return errors.Wrap(fmt.Errorf("failed to advance pager window: %w", err), errors.ErrorTypePagination, "pager.advance")
			}
			w.advances++

		case target < state.Min():
			log.WarnWithFields("Target page is behind the pager window", map[string]interface{}{
				"window_min": state.Min(),
			})
			return fmt.Errorf("goto page %d (first visible %d): %w", target, state.Min(), ErrTargetBehindWindow)

		default:
			// inside the window's range but not clickable, e.g. a gap in the numbers
			return errors.New(errors.ErrorTypePagination, "pager.goto",
				fmt.Sprintf("page %d missing from window %v", target, state.VisibleWindow))
		}
	}

	log.ErrorWithFields("Gave up walking to page", map[string]interface{}{
		"attempts": w.maxAttempts(),
		"advances": w.advances,
	})
	return fmt.Errorf("goto page %d after %d attempts: %w", target, w.maxAttempts(), ErrAttemptsExhausted)
}
