package workflow

import (
	"context"
	"fmt"

	"witsbot/pkg/errors"
	"witsbot/pkg/logger"
	"witsbot/pkg/portal"
	"witsbot/pkg/retry"
)

// IsFatal reports whether err ends a workflow run: the session could not be
// (re)established or progress could not be recorded.
func IsFatal(err error) bool {
	return errors.IsType(err, errors.ErrorTypeSession) || errors.IsType(err, errors.ErrorTypeCheckpoint)
}

// sessionKeeper owns the current browser session of one workflow
type sessionKeeper struct {
	driver   portal.Driver
	logger   logger.Logger
	attempts int
	backoff  retry.BackoffStrategy

	current portal.Session
}

// open starts a session and logs in. Failure is fatal to the run.
func (k *sessionKeeper) open(ctx context.Context) error {
	s, err := k.login(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeSession, "login")
	}
	k.current = s
	return nil
}

func (k *sessionKeeper) login(ctx context.Context) (portal.Session, error) {
	s, err := k.driver.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	if err := k.driver.Login(ctx, s); err != nil {
		if cerr := k.driver.Close(s); cerr != nil {
			k.logger.WithError(cerr).Warn("Failed to close session after login failure")
		}
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	k.logger.WithField("session", s.ID()).Info("Logged in")
	return s, nil
}

// restart tears the session down and logs in again, retrying a bounded number of times
func (k *sessionKeeper) restart(ctx context.Context) error {
	k.close()

	cfg := retry.SessionRestartConfig(ctx, k.attempts, k.logger)
	if k.backoff != nil {
		cfg.Backoff = k.backoff
	}
	s, err := retry.DoWithResult(func() (portal.Session, error) {
		return k.login(ctx)
	}, cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeSession, "restart session")
	}
	k.current = s
	return nil
}

func (k *sessionKeeper) close() {
	if k.current == nil {
		return
	}
	if err := k.driver.Close(k.current); err != nil {
		k.logger.WithError(err).WithField("session", k.current.ID()).Warn("Failed to close session")
	}
	k.current = nil
}
