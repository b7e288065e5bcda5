// Package retry re-runs failing operations with backoff.
//
// The bot uses it to recover a browser session: close, open and log in again
// a bounded number of times before declaring the session lost.
//
//	cfg := retry.SessionRestartConfig(ctx, 3, log)
//	err := retry.Do(func() error {
//		return restart(ctx)
//	}, cfg)
//
// DefaultRetryIf retries navigation and interaction errors from
// witsbot/pkg/errors and any untyped error. Session, pagination, checkpoint
// and config errors, and context cancellation, end the loop at once.
//
// Wait is also the context-aware sleep used for pacing between portal actions.
package retry
