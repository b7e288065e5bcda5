package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// QueryStatus is one row of the query progress table
type QueryStatus struct {
	Query     string
	Done      int
	Failed    int
	Remaining int
}

// DownloadStatus summarises the download checkpoint logs
type DownloadStatus struct {
	NextPage   int
	Downloaded int
	Skipped    int
	Failed     int
}

// RenderQueryTable renders per-query progress
func RenderQueryTable(rows []QueryStatus) string {
	t := newTable("Query", "Done", "Failed", "Remaining")
	for _, r := range rows {
		t.Row(r.Query, strconv.Itoa(r.Done), strconv.Itoa(r.Failed), strconv.Itoa(r.Remaining))
	}
	return t.Render()
}

// RenderDownloadTable renders the download cursor and target counts
func RenderDownloadTable(s DownloadStatus) string {
	t := newTable("Next page", "Downloaded", "Skipped", "Failed")
	t.Row(strconv.Itoa(s.NextPage), strconv.Itoa(s.Downloaded), strconv.Itoa(s.Skipped), strconv.Itoa(s.Failed))
	return t.Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col > 0:
				return numberStyle
			default:
				return cellStyle
			}
		})
}
