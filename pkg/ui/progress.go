package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	progressWidth = 20
)

// Progress prints "N out of M processed" lines for a workflow
type Progress struct {
	mu    sync.Mutex
	label string
	total int
	done  int
	start time.Time
}

// NewProgress creates a progress line for total items
func NewProgress(label string, total int) *Progress {
	return &Progress{label: label, total: total, start: time.Now()}
}

// Reset starts a new count under a new label
func (p *Progress) Reset(label string, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label, p.total, p.done, p.start = label, total, 0, time.Now()
}

// Increment records one processed item
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
}

// Bar renders the progress bar
func (p *Progress) Bar() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bar()
}

func (p *Progress) bar() string {
	filled := 0
	if p.total > 0 {
		filled = p.done * progressWidth / p.total
	}
	if filled > progressWidth {
		filled = progressWidth
	}
	return fmt.Sprintf("[%s%s] %d out of %d processed",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, progressWidth-filled),
		p.done, p.total)
}

// Line renders the label, bar and elapsed time
func (p *Progress) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start).Round(time.Second)
	return fmt.Sprintf("%s %s %s", Magenta("["+p.label+"]"), Yellow(p.bar()), Dim(elapsed.String()))
}

// Print writes the progress line unless quiet mode is on
func (p *Progress) Print() {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(out, p.Line())
}
