// Package resume decides which work is still outstanding after a restart.
//
// Progress is only ever recorded for confirmed outcomes, so anything not in a
// success log is simply attempted again. There is no separate retry queue.
package resume

import (
	"math/rand"
	"sort"

	"witsbot/pkg/checkpoint"
	"witsbot/pkg/portal"
)

// Ordering selects how Remaining orders its result
type Ordering int

const (
	// OrderSorted returns identifiers in ascending order
	OrderSorted Ordering = iota
	// OrderShuffled returns identifiers in random order
	OrderShuffled
)

// Remaining returns the distinct members of universe that are in none of the
// exclude sets. Missing or empty exclusions leave the universe unchanged.
func Remaining(universe []string, ordering Ordering, exclude ...checkpoint.Set) []string {
	if ordering == OrderShuffled {
		return RemainingShuffled(universe, rand.New(rand.NewSource(rand.Int63())), exclude...)
	}
	out := difference(universe, exclude)
	sort.Strings(out)
	return out
}

// RemainingShuffled is Remaining in an order drawn from rng
func RemainingShuffled(universe []string, rng *rand.Rand, exclude ...checkpoint.Set) []string {
	out := difference(universe, exclude)
	sort.Strings(out)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func difference(universe []string, exclude []checkpoint.Set) []string {
	seen := make(map[string]struct{}, len(universe))
	out := make([]string, 0, len(universe))
	for _, id := range universe {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if excluded(id, exclude) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func excluded(id string, sets []checkpoint.Set) bool {
	for _, s := range sets {
		if s.Has(id) {
			return true
		}
	}
	return false
}

// Pending returns the grid rows not yet handled, in grid order. Callers act on
// the first row, re-read the grid and call Pending again.
func Pending(rows []portal.Target, exclude ...checkpoint.Set) []portal.Target {
	out := make([]portal.Target, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		if excluded(row.ID, exclude) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// Policy decides which results count as handled and get recorded as such
type Policy interface {
	// Confirms reports whether a download outcome settles its target
	Confirms(outcome portal.Outcome) bool
	// ConfirmsSubmission reports whether a query submission settles its country
	ConfirmsSubmission(err error) bool
}

// AtLeastOnceUntilConfirmed settles a download when the portal produced it or
// refused it for good, and a submission only when it raised no error.
// Anything else stays outstanding and is attempted on a later pass or run.
type AtLeastOnceUntilConfirmed struct{}

// Confirms implements Policy
func (AtLeastOnceUntilConfirmed) Confirms(outcome portal.Outcome) bool {
	return outcome == portal.OutcomeDownloaded || outcome == portal.OutcomeSkipped
}

// ConfirmsSubmission implements Policy
func (AtLeastOnceUntilConfirmed) ConfirmsSubmission(err error) bool {
	return err == nil
}
