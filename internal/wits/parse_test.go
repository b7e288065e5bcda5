package wits

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"witsbot/pkg/portal"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func window(from, to int) []int {
	var out []int
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}

func TestParseGridRows(t *testing.T) {
	rows, err := ParseGridRows(fixture(t, "results_page1.html"))
	require.NoError(t, err)

	assert.Equal(t, []portal.Target{
		{ID: "40211", Name: "Query 40211 - Imports"},
		{ID: "40212", Name: "Query 40212 - Imports"},
		{ID: "40213", Name: "Query 40213 - Imports"},
	}, rows)

	empty, err := ParseGridRows(fixture(t, "results_empty.html"))
	require.NoError(t, err)
	assert.Empty(t, empty, "header row is not a data row")

	none, err := ParseGridRows("<html><body><p>Session expired</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParsePager(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		window  []int
		more    bool
		current int
		next    int
	}{
		{name: "first window", fixture: "results_page1.html", window: window(1, 10), more: true, current: 1, next: 11},
		{name: "middle window", fixture: "results_window2.html", window: window(11, 20), more: true, current: 12, next: 21},
		{name: "last window", fixture: "results_last.html", window: window(21, 23), more: false, current: 21},
		{name: "rows without pager", fixture: "results_single.html", window: []int{1}, current: 1},
		{name: "empty grid", fixture: "results_empty.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParsePager(fixture(t, tt.fixture))
			require.NoError(t, err)

			assert.Equal(t, tt.window, info.State.VisibleWindow)
			assert.Equal(t, tt.more, info.State.HasMoreWindow)
			assert.Equal(t, tt.current, info.Current)
			assert.Equal(t, tt.next, info.NextWindow)
		})
	}
}

func TestParsePagerWithoutGrid(t *testing.T) {
	info, err := ParsePager(fixture(t, "advanced_query.html"))
	require.NoError(t, err)
	assert.True(t, info.State.Empty())
}

func TestPageTarget(t *testing.T) {
	assert.Equal(t, 21, pageTarget(`javascript:__doPostBack('ctl00$Main$grd','Page$21')`))
	assert.Equal(t, 0, pageTarget(`javascript:__doPostBack('ctl00$Main$grd','Sort$Name')`))
	assert.Equal(t, 0, pageTarget(""))
}

func TestPageLinkSelector(t *testing.T) {
	assert.Equal(t,
		`#MainContent_QueryViewControl1_grdvQueryList a[href*="Page$12'"]:text-is("12")`,
		pageLinkSelector(12, "12"))
}

func TestQueryOptions(t *testing.T) {
	options, err := ParseQueryOptions(fixture(t, "advanced_query.html"))
	require.NoError(t, err)
	require.Len(t, options, 4)
	assert.Equal(t, QueryOption{Value: "120", Text: "Tariff lines by partner"}, options[3])

	tests := []struct {
		name  string
		query string
		value string
		found bool
	}{
		{name: "exact match beats earlier partial", query: "HS6 imports 2019", value: "117", found: true},
		{name: "partial match", query: "(copy)", value: "118", found: true},
		{name: "whitespace normalised", query: "Tariff lines by partner", value: "120", found: true},
		{name: "missing", query: "HS2 exports", found: false},
		{name: "blank", query: "  ", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, ok := MatchQueryOption(options, tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.value, opt.Value)
		})
	}
}

func TestRowIndex(t *testing.T) {
	rows := []portal.Target{{ID: "401"}, {ID: "40"}, {ID: "4"}}
	assert.Equal(t, 1, RowIndex(rows, "40"))
	assert.Equal(t, 2, RowIndex(rows, "4"))
	assert.Equal(t, -1, RowIndex(rows, "4011"))
}
