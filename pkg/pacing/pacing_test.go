package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"witsbot/pkg/config"
	"witsbot/pkg/logger"
)

func TestCooldownDelay(t *testing.T) {
	c := FromConfig(config.DefaultConfig().Pacing.Query, nil)

	tests := []struct {
		streak   int
		expected time.Duration
		long     bool
	}{
		{0, 10 * time.Second, false},
		{1, 10 * time.Second, false},
		{2, 10 * time.Second, false},
		{3, 70 * time.Second, true},
		{4, 10 * time.Second, false},
		{6, 70 * time.Second, true},
	}

	for _, tt := range tests {
		delay, long := c.Delay(tt.streak)
		assert.Equal(t, tt.expected, delay, "streak %d", tt.streak)
		assert.Equal(t, tt.long, long, "streak %d", tt.streak)
	}
}

func TestCooldownWithoutLongPauses(t *testing.T) {
	c := &Cooldown{Short: time.Second, Long: time.Hour, Every: 0}
	delay, long := c.Delay(10)
	assert.Equal(t, time.Second, delay)
	assert.False(t, long)
}

func TestCooldownPauseSleeps(t *testing.T) {
	var slept []time.Duration
	log := logger.NewTestLogger()
	c := &Cooldown{
		Short:  2 * time.Second,
		Long:   30 * time.Second,
		Every:  2,
		Logger: log,
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	for streak := 1; streak <= 4; streak++ {
		require.NoError(t, c.Pause(context.Background(), streak))
	}

	assert.Equal(t, []time.Duration{2 * time.Second, 30 * time.Second, 2 * time.Second, 30 * time.Second}, slept)
	assert.Len(t, log.GetMessagesByLevel("INFO"), 2, "long cooldowns are logged at info")
}

func TestCooldownPauseCancelled(t *testing.T) {
	c := &Cooldown{Short: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Pause(ctx, 1), context.Canceled)
}

func TestNopAndRecorder(t *testing.T) {
	assert.NoError(t, Nop{}.Pause(context.Background(), 3))

	r := &Recorder{}
	_ = r.Pause(context.Background(), 1)
	_ = r.Pause(context.Background(), 2)
	assert.Equal(t, []int{1, 2}, r.Streaks)
}
