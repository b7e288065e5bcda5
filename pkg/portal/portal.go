package portal

import (
	"context"
	"fmt"
)

// Session is a live browser session owned by one workflow.
// Every driver operation takes the session explicitly.
type Session interface {
	ID() string
}

// Destination is a portal page reachable from the top menu
type Destination int

const (
	// DestinationResults is the "Download and View Results" grid
	DestinationResults Destination = iota
	// DestinationAdvancedQuery is the "Raw Trade Data" advanced query form
	DestinationAdvancedQuery
)

func (d Destination) String() string {
	switch d {
	case DestinationResults:
		return "results"
	case DestinationAdvancedQuery:
		return "advanced_query"
	default:
		return fmt.Sprintf("destination(%d)", int(d))
	}
}

// Target is one row of the results grid
type Target struct {
	ID   string
	Name string
}

// PagerState is what the pager shows: the page numbers currently clickable
// and whether a control exists to reveal the next window of numbers.
// A grid with rows but no rendered pager is reported as window [1].
type PagerState struct {
	VisibleWindow []int
	HasMoreWindow bool
}

// Empty reports whether no page numbers are visible
func (p PagerState) Empty() bool {
	return len(p.VisibleWindow) == 0
}

// Min returns the smallest visible page number, or 0 when empty
func (p PagerState) Min() int {
	if p.Empty() {
		return 0
	}
	m := p.VisibleWindow[0]
	for _, n := range p.VisibleWindow[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

// Max returns the largest visible page number, or 0 when empty
func (p PagerState) Max() int {
	m := 0
	for _, n := range p.VisibleWindow {
		if n > m {
			m = n
		}
	}
	return m
}

// Contains reports whether page is directly clickable
func (p PagerState) Contains(page int) bool {
	for _, n := range p.VisibleWindow {
		if n == page {
			return true
		}
	}
	return false
}

// Outcome is the classified result of a download attempt
type Outcome int

const (
	// OutcomeError means the attempt failed and should be retried later
	OutcomeError Outcome = iota
	// OutcomeDownloaded means the portal produced the result
	OutcomeDownloaded
	// OutcomeSkipped means the portal refused the result with a dialog; it will never succeed
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "DOWNLOADED"
	case OutcomeSkipped:
		return "SKIPPED"
	default:
		return "ERROR"
	}
}

// Driver performs the portal actions. A nil error means the action succeeded.
// Implementations handle popups and dialogs internally.
type Driver interface {
	Open(ctx context.Context) (Session, error)
	Close(s Session) error
	Login(ctx context.Context, s Session) error

	Navigate(ctx context.Context, s Session, dest Destination) error

	// Query submission
	SelectQuery(ctx context.Context, s Session, name string) error
	SubmitCountrySelection(ctx context.Context, s Session, code, countryName string) error
	SubmitForm(ctx context.Context, s Session) error

	// Result download
	ListGridRows(ctx context.Context, s Session) ([]Target, error)
	ObservePager(ctx context.Context, s Session) (PagerState, error)
	ActivatePage(ctx context.Context, s Session, page int) error
	AdvancePageWindow(ctx context.Context, s Session) error
	TriggerDownload(ctx context.Context, s Session, targetID string) Outcome
}
