// Package pacing spaces out portal actions so the bot looks like a patient human.
package pacing

import (
	"context"
	"sync"
	"time"

	"witsbot/pkg/config"
	"witsbot/pkg/logger"
	"witsbot/pkg/retry"
)

// Pacer pauses between portal actions. streak is the number of consecutive
// successes so far, counting the one just completed.
type Pacer interface {
	Pause(ctx context.Context, streak int) error
}

// Cooldown waits Short after every success and Long instead of Short
// whenever streak is a positive multiple of Every.
type Cooldown struct {
	Short  time.Duration
	Long   time.Duration
	Every  int
	Logger logger.Logger

	// Sleep defaults to retry.Wait
	Sleep func(ctx context.Context, d time.Duration) error
}

// FromConfig builds a Cooldown from a pacing section
func FromConfig(cfg config.CooldownConfig, log logger.Logger) *Cooldown {
	return &Cooldown{Short: cfg.Short, Long: cfg.Long, Every: cfg.Every, Logger: log}
}

// Delay returns how long Pause waits for streak
func (c *Cooldown) Delay(streak int) (time.Duration, bool) {
	if c.Every > 0 && streak > 0 && streak%c.Every == 0 {
		return c.Long, true
	}
	return c.Short, false
}

// Pause implements Pacer
func (c *Cooldown) Pause(ctx context.Context, streak int) error {
	delay, long := c.Delay(streak)
	if c.Logger != nil {
		logger.LogPacing(c.Logger, streak, delay, long)
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = retry.Wait
	}
	return sleep(ctx, delay)
}

// Nop never waits
type Nop struct{}

// Pause implements Pacer
func (Nop) Pause(ctx context.Context, streak int) error {
	return ctx.Err()
}

// Recorder remembers every streak it was asked to pause for, without waiting
type Recorder struct {
	mu      sync.Mutex
	Streaks []int
}

// Pause implements Pacer
func (r *Recorder) Pause(ctx context.Context, streak int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Streaks = append(r.Streaks, streak)
	return ctx.Err()
}
