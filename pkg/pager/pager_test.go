package pager

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"witsbot/pkg/errors"
	"witsbot/pkg/logger"
	"witsbot/pkg/portal"
)

func gridOf(pages int) [][]portal.Target {
	grid := make([][]portal.Target, pages)
	for i := range grid {
		grid[i] = []portal.Target{{ID: fmt.Sprintf("%d01", i+1)}}
	}
	return grid
}

func openSession(t *testing.T, d *portal.MockDriver) portal.Session {
	t.Helper()
	s, err := d.Open(context.Background())
	require.NoError(t, err)
	return s
}

func TestGotoAcrossWindows(t *testing.T) {
	d := portal.NewMockDriver(gridOf(30)...)
	s := openSession(t, d)
	w := New(d, logger.NewTestLogger())

	require.NoError(t, w.Goto(context.Background(), s, 25))

	assert.Equal(t, 2, w.Advances(), "1..10 -> 11..20 -> 21..30")
	assert.Equal(t, 2, d.CallCount("AdvancePageWindow"))
	assert.Equal(t, 1, d.CallCount("ActivatePage"))
	assert.Equal(t, 25, d.CurrentPage())
}

func TestGotoVisiblePage(t *testing.T) {
	d := portal.NewMockDriver(gridOf(30)...)
	s := openSession(t, d)
	w := New(d, nil)

	require.NoError(t, w.Goto(context.Background(), s, 7))
	assert.Equal(t, 0, w.Advances())
	assert.Equal(t, 7, d.CurrentPage())
}

func TestGotoFirstPageIsNoop(t *testing.T) {
	for _, target := range []int{1, 0, -3} {
		t.Run(fmt.Sprint(target), func(t *testing.T) {
			d := portal.NewMockDriver(gridOf(3)...)
			s := openSession(t, d)
			w := New(d, nil)

			require.NoError(t, w.Goto(context.Background(), s, target))
			assert.Equal(t, 0, d.CallCount("ObservePager"))
		})
	}
}

func TestGotoStuckPagerTerminates(t *testing.T) {
	d := portal.NewMockDriver(gridOf(30)...)
	d.StuckPager = true
	s := openSession(t, d)
	w := New(d, logger.NewTestLogger())
	w.MaxAttempts = 5

	err := w.Goto(context.Background(), s, 25)

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrAttemptsExhausted))
	assert.True(t, errors.IsType(err, errors.ErrorTypePagination))
	assert.Equal(t, 5, d.CallCount("ObservePager"))
	assert.Equal(t, 5, w.Advances())
}

func TestGotoDefaultAttemptCap(t *testing.T) {
	d := portal.NewMockDriver(gridOf(500)...)
	d.StuckPager = true
	s := openSession(t, d)
	w := &Walker{Pager: d}

	err := w.Goto(context.Background(), s, 400)
	assert.True(t, stderrors.Is(err, ErrAttemptsExhausted))
	assert.Equal(t, DefaultMaxAttempts, d.CallCount("ObservePager"))
}

func TestGotoPastLastPage(t *testing.T) {
	d := portal.NewMockDriver(gridOf(12)...)
	s := openSession(t, d)
	w := New(d, nil)

	err := w.Goto(context.Background(), s, 15)

	assert.True(t, stderrors.Is(err, ErrPageOutOfRange))
	assert.Equal(t, 1, w.Advances())
	assert.Equal(t, 0, d.CallCount("ActivatePage"))
}

func TestGotoSinglePageGrid(t *testing.T) {
	d := portal.NewMockDriver(gridOf(1)...)
	s := openSession(t, d)

	err := New(d, nil).Goto(context.Background(), s, 2)
	assert.True(t, stderrors.Is(err, ErrPageOutOfRange))
}

func TestGotoEmptyWindow(t *testing.T) {
	d := portal.NewMockDriver()
	s := openSession(t, d)

	err := New(d, nil).Goto(context.Background(), s, 2)
	assert.True(t, stderrors.Is(err, ErrEmptyWindow))
}

func TestGotoTargetBehindWindow(t *testing.T) {
	d := portal.NewMockDriver(gridOf(30)...)
	s := openSession(t, d)
	log := logger.NewTestLogger()
	w := New(d, log)

	require.NoError(t, w.Goto(context.Background(), s, 12))
	err := w.Goto(context.Background(), s, 5)

	assert.True(t, stderrors.Is(err, ErrTargetBehindWindow))
	assert.Equal(t, 12, d.CurrentPage(), "no backward navigation is attempted")
	assert.True(t, log.HasMessage("Target page is behind the pager window"))
}

type gappedPager struct{}

func (gappedPager) ObservePager(context.Context, portal.Session) (portal.PagerState, error) {
	return portal.PagerState{VisibleWindow: []int{1, 2, 4, 5}}, nil
}
func (gappedPager) ActivatePage(context.Context, portal.Session, int) error { return nil }
func (gappedPager) AdvancePageWindow(context.Context, portal.Session) error { return nil }

func TestGotoGapInWindow(t *testing.T) {
	err := New(gappedPager{}, nil).Goto(context.Background(), nil, 3)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePagination))
}

func TestGotoDriverFailures(t *testing.T) {
	tests := []struct {
		name string
		op   string
	}{
		{name: "observe", op: "ObservePager"},
		{name: "advance", op: "AdvancePageWindow"},
		{name: "activate", op: "ActivatePage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := portal.NewMockDriver(gridOf(30)...)
			s := openSession(t, d)
			cause := fmt.Errorf("element detached")
			d.Fail(tt.op, cause)

			err := New(d, nil).Goto(context.Background(), s, 15)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypePagination))
			assert.True(t, stderrors.Is(err, cause))
		})
	}
}

func TestGotoCancelled(t *testing.T) {
	d := portal.NewMockDriver(gridOf(30)...)
	s := openSession(t, d)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(d, nil).Goto(ctx, s, 25)
	assert.ErrorIs(t, err, context.Canceled)
}
