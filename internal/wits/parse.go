package wits

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"witsbot/pkg/portal"
)

// Selectors of the saved-query results page
const (
	gridSelector      = "#MainContent_QueryViewControl1_grdvQueryList"
	rowSelector       = gridSelector + ` tr[style*="background-color:White"]`
	queryDropdown     = "#MainContent_cboExistingQuery"
	downloadIconInRow = `input[src*="Download"]`
)

var pageArg = regexp.MustCompile(`Page\$(\d+)`)

// pagerInfo is what the grid footer says about pagination
type pagerInfo struct {
	State portal.PagerState
	// Current is the page shown as plain text rather than a link; 0 if unknown
	Current int
	// NextWindow is the page the trailing "..." link opens; 0 if there is none
	NextWindow int
}

// QueryOption is one entry of the saved-query dropdown
type QueryOption struct {
	Value string
	Text  string
}

func parseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

// ParseGridRows returns the data rows of the results grid in page order.
// The first cell holds the query id, the second its name.
func ParseGridRows(html string) ([]portal.Target, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	var rows []portal.Target
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}
		rows = append(rows, portal.Target{
			ID:   cleanText(cells.Eq(0).Text()),
			Name: cleanText(cells.Eq(1).Text()),
		})
	})
	return rows, nil
}

// ParsePager reads the numbered pager in the grid footer. A grid with data
// rows and no pager has a single page. A page without the grid has no pager.
func ParsePager(html string) (pagerInfo, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return pagerInfo{}, err
	}
	grid := doc.Find(gridSelector)
	if grid.Length() == 0 {
		return pagerInfo{}, nil
	}

	links := grid.Find(`a[href*="Page$"]`)
	if links.Length() == 0 {
		if doc.Find(rowSelector).Length() == 0 {
			return pagerInfo{}, nil
		}
		return pagerInfo{State: portal.PagerState{VisibleWindow: []int{1}}, Current: 1}, nil
	}

	var info pagerInfo
	var ellipses []int
	seen := make(map[int]bool)
	links.First().Closest("tr").ChildrenFiltered("td").Each(func(_ int, cell *goquery.Selection) {
		text := cleanText(cell.Text())
		link := cell.Find("a").First()

		if text == "..." {
			if href, ok := link.Attr("href"); ok {
				if n := pageTarget(href); n > 0 {
					ellipses = append(ellipses, n)
				}
			}
			return
		}

		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || seen[n] {
			return
		}
		seen[n] = true
		info.State.VisibleWindow = append(info.State.VisibleWindow, n)
		if link.Length() == 0 {
			info.Current = n
		}
	})

	sort.Ints(info.State.VisibleWindow)
	if last := info.State.Max(); last > 0 {
		for _, n := range ellipses {
			if n > last {
				info.State.HasMoreWindow = true
				info.NextWindow = n
			}
		}
	}
	return info, nil
}

// pageTarget extracts N from a __doPostBack(...,'Page$N') href
func pageTarget(href string) int {
	m := pageArg.FindStringSubmatch(href)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// pageLinkSelector matches the pager link with the given text that posts back to page n
func pageLinkSelector(n int, text string) string {
	return fmt.Sprintf(`%s a[href*="Page$%d'"]:text-is("%s")`, gridSelector, n, text)
}

// ParseQueryOptions lists the saved queries offered by the dropdown
func ParseQueryOptions(html string) ([]QueryOption, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}
	var options []QueryOption
	doc.Find(queryDropdown + " option").Each(func(_ int, opt *goquery.Selection) {
		value, _ := opt.Attr("value")
		options = append(options, QueryOption{Value: value, Text: cleanText(opt.Text())})
	})
	return options, nil
}

// MatchQueryOption picks the option for a saved query: an exact text match
// wins, otherwise the first option whose text contains name.
func MatchQueryOption(options []QueryOption, name string) (QueryOption, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return QueryOption{}, false
	}
	for _, opt := range options {
		if opt.Text == name {
			return opt, true
		}
	}
	for _, opt := range options {
		if strings.Contains(opt.Text, name) {
			return opt, true
		}
	}
	return QueryOption{}, false
}

// RowIndex returns the position of the row with the given id among the grid rows
func RowIndex(rows []portal.Target, id string) int {
	for i, row := range rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
