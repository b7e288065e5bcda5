package wits

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"witsbot/pkg/metadata"
	"witsbot/pkg/portal"
)

const (
	modifyReporterLink = "#divRptrmodify a"
	modalContent       = ".rwWindowContent"
	modalTitle         = ".rwTitleRow"
	countryListFrame   = `iframe[src*="CountryList.aspx"]`
	columnMoveAll      = "#btnMoveAll"
	columnProcess      = "#RptCoulmnSelection1_btnProcessed"
)

// SubmitCountrySelection replaces the reporter of the selected query with one country.
// The portal answers the Modify link with either the Country List modal or,
// for queries not yet saved under the account, a New Query modal asking for a name.
func (d *Driver) SubmitCountrySelection(ctx context.Context, s portal.Session, code, countryName string) error {
	page, err := d.page(s)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	log := d.logger.WithFields(map[string]interface{}{"country": code, "name": countryName})
	d.dismissPopups(page)

	modify := page.Locator(modifyReporterLink)
	if err := modify.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		d.screenshot(page, "modify_link_error")
		return fmt.Errorf("modify link not visible: %w", err)
	}

	_, stop := d.acceptDialogs(page)
	err = modify.Click()
	if err == nil {
		err = d.settle(page)
	}
	stop()
	if err != nil {
		return fmt.Errorf("failed to open reporter modal: %w", err)
	}
	d.dismissPopups(page)

	if visible, _ := page.Locator(modalContent).IsVisible(); !visible {
		return fmt.Errorf("reporter modal did not open")
	}
	title := "Unknown Modal"
	if text, err := page.Locator(modalTitle).First().TextContent(); err == nil {
		title = strings.TrimSpace(text)
	}
	log.WithField("modal", title).Debug("Reporter modal open")

	switch {
	case strings.Contains(title, "Country List"):
		return d.pickCountry(ctx, page, code, countryName)
	case strings.Contains(title, "New Query"):
		ws, _ := s.(*session)
		return d.nameQuery(page, ws.query)
	default:
		return fmt.Errorf("unexpected modal %q", title)
	}
}

func (d *Driver) pickCountry(ctx context.Context, page playwright.Page, code, countryName string) error {
	frame := page.FrameLocator(countryListFrame)

	if err := frame.Locator(`a.clearall, input[value="Clear All"]`).First().Click(); err != nil {
		return fmt.Errorf("failed to clear country list: %w", err)
	}
	page.WaitForTimeout(300)

	find := frame.Locator(`img#Img1, img[title="Find Country"]`)
	if n, err := find.Count(); err != nil || n == 0 {
		return fmt.Errorf("find country button missing")
	}
	if err := find.First().Click(); err != nil {
		return fmt.Errorf("failed to open country finder: %w", err)
	}
	page.WaitForTimeout(300)

	if err := frame.Locator("textarea#txtCntry").Fill(code); err != nil {
		return fmt.Errorf("failed to enter country code: %w", err)
	}
	if err := frame.Locator("input#btnCntryCode").Click(); err != nil {
		return fmt.Errorf("failed to add country code: %w", err)
	}
	page.WaitForTimeout(1000)

	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.countrySelected(frame, code, countryName) {
		d.cancel(page)
		return fmt.Errorf("could not verify selection of %s (%s)", countryName, code)
	}

	process := frame.Locator("input#CountryList1_btnProcess")
	if n, err := process.Count(); err != nil || n == 0 {
		return fmt.Errorf("process button missing from country list")
	}
	if err := process.Click(); err != nil {
		return fmt.Errorf("failed to process country list: %w", err)
	}
	return d.settle(page)
}

// countrySelected looks for the country in the selected list by its list id,
// then by name, then by the " -- CODE" suffix the portal appends.
func (d *Driver) countrySelected(frame playwright.FrameLocator, code, countryName string) bool {
	candidates := []struct {
		how      string
		selector string
	}{
		{"id", fmt.Sprintf(`li.list-item[id=%q]`, countryName+" -- "+code)},
		{"name", fmt.Sprintf(`li.list-item:has-text(%q)`, countryName)},
		{"code", fmt.Sprintf(`li.list-item:has-text(%q)`, " -- "+code)},
	}
	for _, c := range candidates {
		item := frame.Locator(c.selector).First()
		if n, err := item.Count(); err != nil || n == 0 {
			continue
		}
		if visible, err := item.IsVisible(); err == nil && visible {
			d.logger.WithFields(map[string]interface{}{"country": code, "match": c.how}).Debug("Country selection verified")
			return true
		}
	}
	return false
}

func (d *Driver) nameQuery(page playwright.Page, name string) error {
	if name == "" {
		return fmt.Errorf("no query selected to name")
	}
	for _, frame := range page.Frames() {
		input := frame.Locator(`input[type="text"]:enabled:visible`).First()
		if n, err := input.Count(); err != nil || n == 0 {
			continue
		}
		if err := input.Fill(name); err != nil {
			return fmt.Errorf("failed to enter query name: %w", err)
		}
		save := frame.Locator(`input[value="Save"], button:has-text("Save")`).First()
		if n, err := save.Count(); err != nil || n == 0 {
			continue
		}
		if err := save.Click(); err != nil {
			return fmt.Errorf("failed to save query name: %w", err)
		}
		return d.settle(page)
	}
	return fmt.Errorf("query name input not found")
}

// cancel backs out of the query editor
func (d *Driver) cancel(page playwright.Page) {
	d.dismissPopups(page)
	d.hideOverlays(page)
	back := page.Locator("#btnBack")
	if visible, err := back.IsVisible(); err != nil || !visible {
		return
	}
	if err := back.Click(); err != nil {
		d.logger.WithError(err).Warn("Failed to click cancel")
	}
}

// TriggerDownload clicks the download icon of a result row and confirms the
// column selection popup. A portal dialog in reply to the click means the
// result will never be produced.
func (d *Driver) TriggerDownload(ctx context.Context, s portal.Session, targetID string) portal.Outcome {
	page, err := d.page(s)
	if err != nil || ctx.Err() != nil {
		return portal.OutcomeError
	}
	log := d.logger.WithField("target", targetID)
	d.dismissPopups(page)

	html, err := page.Content()
	if err != nil {
		log.WithError(err).Warn("Failed to read results grid")
		return portal.OutcomeError
	}
	rows, err := ParseGridRows(html)
	if err != nil {
		log.WithError(err).Warn("Failed to parse results grid")
		return portal.OutcomeError
	}
	idx := RowIndex(rows, targetID)
	if idx < 0 {
		log.Warn("Target not on the current page")
		return portal.OutcomeError
	}

	icon := page.Locator(rowSelector).Nth(idx).Locator(downloadIconInRow)
	if err := icon.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		log.WithError(err).Warn("Download icon not visible")
		return portal.OutcomeError
	}

	seen, stop := d.acceptDialogs(page)
	defer stop()
	if err := icon.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)}); err != nil {
		log.WithError(err).Warn("Failed to click download icon")
		return portal.OutcomeError
	}
	page.WaitForTimeout(2000)
	if seen() {
		return portal.OutcomeSkipped
	}

	frame := d.findColumnFrame(page)
	if frame == nil {
		log.Warn("Column selection popup not found")
		return portal.OutcomeError
	}
	if err := frame.Locator(columnMoveAll).Click(); err != nil {
		log.WithError(err).Warn("Failed to select all columns")
		return portal.OutcomeError
	}
	page.WaitForTimeout(1000)

	process := frame.Locator(columnProcess)
	if !d.opts.SaveFiles || d.files == nil {
		if err := process.Click(); err != nil {
			log.WithError(err).Warn("Failed to confirm download")
			return portal.OutcomeError
		}
		page.WaitForTimeout(1000)
		return portal.OutcomeDownloaded
	}

	current := 0
	if info, err := ParsePager(html); err == nil {
		current = info.Current
	}
	if err := d.saveDownload(page, process, rows[idx], current); err != nil {
		log.WithError(err).Warn("Failed to save downloaded file")
		return portal.OutcomeError
	}
	return portal.OutcomeDownloaded
}

// findColumnFrame polls the page frames for the column selection popup
func (d *Driver) findColumnFrame(page playwright.Page) playwright.Frame {
	for attempt := 0; attempt < 5; attempt++ {
		for _, frame := range page.Frames() {
			if visible, err := frame.Locator(columnMoveAll).IsVisible(); err == nil && visible {
				return frame
			}
		}
		page.WaitForTimeout(1000)
	}
	return nil
}

func (d *Driver) saveDownload(page playwright.Page, process playwright.Locator, target portal.Target, pageNum int) error {
	download, err := page.ExpectDownload(func() error {
		return process.Click()
	}, playwright.PageExpectDownloadOptions{Timeout: ms(d.opts.Timeout)})
	if err != nil {
		return fmt.Errorf("no file served: %w", err)
	}
	path, err := download.Path()
	if err != nil {
		return fmt.Errorf("download did not complete: %w", err)
	}
	saved, err := d.files.SaveFile(path, target.ID, download.SuggestedFilename())
	if err != nil {
		return err
	}

	meta, err := metadata.ForFile(saved, target.ID, target.Name, pageNum)
	if err == nil {
		err = meta.Save(saved)
	}
	if err != nil {
		d.logger.WithError(err).Warn("Failed to write result metadata")
	}
	d.logger.WithFields(map[string]interface{}{
		"target": target.ID,
		"file":   saved,
	}).Info("Saved result file")
	return nil
}
