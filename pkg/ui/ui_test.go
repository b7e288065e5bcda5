package ui

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	titles []string
	err    error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })
	return &buf
}

func TestProgressBar(t *testing.T) {
	p := NewProgress("Tariff", 4)
	assert.Contains(t, p.Bar(), "0 out of 4 processed")

	p.Increment()
	p.Increment()
	bar := p.Bar()
	assert.Contains(t, bar, "2 out of 4 processed")
	assert.Equal(t, 10, strings.Count(bar, ProgressBar))

	p.Reset("MFN", 0)
	p.Increment()
	assert.Contains(t, p.Bar(), "1 out of 0 processed")
	assert.Equal(t, 0, strings.Count(p.Bar(), ProgressBar))
}

func TestProgressPrintRespectsQuiet(t *testing.T) {
	buf := captureOutput(t)
	p := NewProgress("download", 2)

	SetQuietMode(true)
	p.Print()
	assert.Empty(t, buf.String())

	SetQuietMode(false)
	p.Print()
	assert.Contains(t, buf.String(), "0 out of 2 processed")
}

func TestNotifier(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{err: errors.New("no display")}
	n := NewNotifierWithSender(sender)

	n.SendSuccess("Download finished", "pages 1-4")
	n.SendError("Query aborted", "login failed")

	assert.Equal(t, []string{"Download finished", "Query aborted"}, sender.titles)
	assert.Contains(t, buf.String(), "pages 1-4")
	assert.Contains(t, buf.String(), "login failed")
}

func TestDisabledNotifierOnlyPrints(t *testing.T) {
	buf := captureOutput(t)
	n := NewNotifier(false)
	n.sender = &recordingSender{}

	n.SendSuccess("done", "ok")
	assert.Empty(t, n.sender.(*recordingSender).titles)
	assert.Contains(t, buf.String(), "ok")

	var nilNotifier *Notifier
	nilNotifier.send("x", "y")
}

func TestRenderTables(t *testing.T) {
	q := RenderQueryTable([]QueryStatus{
		{Query: "Tariff 2019", Done: 12, Failed: 1, Remaining: 3},
		{Query: "MFN", Done: 0, Failed: 0, Remaining: 15},
	})
	assert.Contains(t, q, "Tariff 2019")
	assert.Contains(t, q, "Remaining")
	assert.Contains(t, q, "15")

	d := RenderDownloadTable(DownloadStatus{NextPage: 7, Downloaded: 120, Skipped: 4, Failed: 2})
	assert.Contains(t, d, "Next page")
	assert.Contains(t, d, "120")
}
