// Package supervisor keeps a long-running worker fresh by stopping and
// relaunching it on a fixed interval.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"witsbot/pkg/logger"
)

// Supervisor relaunches the command returned by Command every Interval.
// A worker still running at the end of its interval is sent an interrupt
// and killed if it has not exited after Grace.
type Supervisor struct {
	Interval time.Duration
	Grace    time.Duration
	Command  func(ctx context.Context) *exec.Cmd
	Logger   logger.Logger

	// MaxLaunches stops the loop after this many launches; 0 runs until ctx is done
	MaxLaunches int
}

// Run starts the worker and keeps relaunching it until ctx is cancelled.
// A worker that exits early is not restarted before its interval ends.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.Command == nil {
		return fmt.Errorf("supervisor has no command")
	}
	if s.Interval <= 0 {
		return fmt.Errorf("supervisor interval must be positive, got %s", s.Interval)
	}

	for launch := 1; ; launch++ {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.runOnce(ctx, launch); err != nil {
			return err
		}
		if s.MaxLaunches > 0 && launch >= s.MaxLaunches {
			return nil
		}
		if ctx.Err() == nil {
			s.log().WithField("launch", launch+1).Info("Restarting worker")
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context, launch int) error {
	cmd := s.Command(ctx)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	log := s.log().WithFields(map[string]interface{}{
		"pid":    cmd.Process.Pid,
		"launch": launch,
	})
	log.WithField("interval", s.Interval).Info("Worker started")

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	timer := time.NewTimer(s.Interval)
	defer timer.Stop()

	select {
	case err := <-exited:
		if err != nil {
			log.WithError(err).Warn("Worker exited early")
		} else {
			log.Info("Worker finished before its interval")
		}
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		return nil
	case <-timer.C:
		log.Info("Interval elapsed, stopping worker")
	case <-ctx.Done():
		log.Info("Shutting down worker")
	}

	s.stop(cmd, exited, log)
	return nil
}

// stop interrupts the worker, then kills it once Grace has passed
func (s *Supervisor) stop(cmd *exec.Cmd, exited <-chan error, log logger.Logger) {
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		log.WithError(err).Debug("Interrupt not delivered, killing worker")
		_ = cmd.Process.Kill()
		<-exited
		return
	}

	grace := time.NewTimer(s.Grace)
	defer grace.Stop()
	select {
	case <-exited:
		log.Info("Worker stopped")
	case <-grace.C:
		log.WithField("grace", s.Grace).Warn("Worker ignored interrupt, killing it")
		if err := cmd.Process.Kill(); err != nil {
			log.WithError(err).Error("Failed to kill worker")
		}
		<-exited
	}
}

func (s *Supervisor) log() logger.Logger {
	if s.Logger == nil {
		return logger.GetLogger()
	}
	return s.Logger
}
