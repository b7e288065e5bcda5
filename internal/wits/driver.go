// Package wits drives the World Bank WITS trade portal through a real
// Chromium browser. It implements portal.Driver.
package wits

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"
	"witsbot/pkg/config"
	"witsbot/pkg/errors"
	"witsbot/pkg/logger"
	"witsbot/pkg/portal"
	"witsbot/pkg/storage"
)

// Options configures the browser driver
type Options struct {
	LoginURL string
	Email    string
	Password string
	Headless bool
	// Timeout is the default wait for every browser action
	Timeout time.Duration
	SlowMo  time.Duration
	// SaveFiles captures the file the portal serves for each download
	SaveFiles bool
	// ScreenshotDir receives screenshots taken when a page is not as expected
	ScreenshotDir string
}

// OptionsFromConfig builds driver options from configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LoginURL:      cfg.URLs.Login,
		Email:         cfg.Credentials.Email,
		Password:      cfg.Credentials.Password,
		Headless:      cfg.Browser.Headless,
		Timeout:       cfg.Browser.Timeout,
		SlowMo:        cfg.Browser.SlowMo,
		SaveFiles:     cfg.Download.SaveFiles,
		ScreenshotDir: cfg.Output.Directory,
	}
}

// Driver implements portal.Driver with playwright
type Driver struct {
	opts   Options
	files  *storage.Manager
	logger logger.Logger

	mu       sync.Mutex
	pw       *playwright.Playwright
	sessions int
}

type session struct {
	id      string
	browser playwright.Browser
	page    playwright.Page
	// query is the saved query last selected, used to name a copy of it
	query string
}

func (s *session) ID() string { return s.id }

// New creates a driver. When files is non-nil, downloaded reports are saved through it.
func New(opts Options, files *storage.Manager, log logger.Logger) *Driver {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Driver{opts: opts, files: files, logger: log.WithField("component", "wits")}
}

// Shutdown stops the playwright server. Open sessions must be closed first.
func (d *Driver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	return err
}

func (d *Driver) page(s portal.Session) (playwright.Page, error) {
	ws, ok := s.(*session)
	if !ok || ws == nil || ws.page == nil {
		return nil, errors.New(errors.ErrorTypeSession, "", fmt.Sprintf("not a browser session: %v", s))
	}
	if ws.page.IsClosed() {
		return nil, errors.New(errors.ErrorTypeSession, "", fmt.Sprintf("session %s page is closed", ws.id))
	}
	return ws.page, nil
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// Open launches a fresh Chromium with its own context and page
func (d *Driver) Open(ctx context.Context) (portal.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			d.mu.Unlock()
			return nil, errors.Wrap(fmt.Errorf("failed to start playwright: %w", err), errors.ErrorTypeSession, "open")
		}
		d.pw = pw
	}
	pw := d.pw
	d.sessions++
	id := fmt.Sprintf("browser-%d", d.sessions)
	d.mu.Unlock()

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(d.opts.Headless)}
	if d.opts.SlowMo > 0 {
		launch.SlowMo = ms(d.opts.SlowMo)
	}
	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		return nil, errors.Wrap(fmt.Errorf("failed to launch browser: %w", err), errors.ErrorTypeSession, "open")
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
	})
	if err != nil {
		_ = browser.Close()
		return nil, errors.Wrap(fmt.Errorf("failed to create browser context: %w", err), errors.ErrorTypeSession, "open")
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		return nil, errors.Wrap(fmt.Errorf("failed to create page: %w", err), errors.ErrorTypeSession, "open")
	}
	page.SetDefaultTimeout(float64(d.opts.Timeout.Milliseconds()))

	d.logger.WithFields(map[string]interface{}{
		"session":  id,
		"headless": d.opts.Headless,
	}).Debug("Browser launched")
	return &session{id: id, browser: browser, page: page}, nil
}

// Close shuts the session's browser down
func (d *Driver) Close(s portal.Session) error {
	ws, ok := s.(*session)
	if !ok || ws == nil || ws.browser == nil {
		return nil
	}
	if err := ws.browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	ws.page = nil
	return nil
}

// Login signs in and waits for the Logout link to confirm it
func (d *Driver) Login(ctx context.Context, s portal.Session) error {
	page, err := d.page(s)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.opts.Email == "" || d.opts.Password == "" {
		return errors.New(errors.ErrorTypeSession, "login", "no portal credentials")
	}

	if _, err := page.Goto(d.opts.LoginURL, playwright.PageGotoOptions{
		Timeout:   ms(d.opts.Timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return errors.Wrap(fmt.Errorf("failed to open login page: %w", err), errors.ErrorTypeNavigation, "login")
	}

	if err := page.Locator("#UserNameTextBox").Fill(d.opts.Email); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInteraction, "login")
	}
	if err := page.Locator("#UserPassTextBox").Fill(d.opts.Password); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInteraction, "login")
	}
	if err := page.Locator("#btnSubmit").Click(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInteraction, "login")
	}
	_ = page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: playwright.LoadStateDomcontentloaded})

	if err := page.Locator("text=Logout").First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return errors.New(errors.ErrorTypeSession, "login", "login rejected or timed out")
	}
	return nil
}

// Navigate opens a page through the top menu
func (d *Driver) Navigate(ctx context.Context, s portal.Session, dest portal.Destination) error {
	page, err := d.page(s)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var menu, link string
	switch dest {
	case portal.DestinationResults:
		menu, link = "Results", "#TopMenu1_DownloadandViewResults"
	case portal.DestinationAdvancedQuery:
		menu, link = "Advanced Query", "#TopMenu1_RawTradeData"
	default:
		return fmt.Errorf("unknown destination %v", dest)
	}

	_ = page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{State: playwright.LoadStateDomcontentloaded})
	d.dismissPopups(page)

	if err := page.Locator(fmt.Sprintf(`a.dropdown-toggle:has-text("%s")`, menu)).First().Hover(playwright.LocatorHoverOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		return fmt.Errorf("failed to open %s menu: %w", menu, err)
	}
	d.dismissPopups(page)

	item := page.Locator(link)
	if err := item.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		return fmt.Errorf("menu item %s not visible: %w", link, err)
	}
	if err := item.Click(); err != nil {
		return fmt.Errorf("failed to click %s: %w", link, err)
	}
	return d.settle(page)
}

// SelectQuery picks a saved query from the dropdown and proceeds to its editor
func (d *Driver) SelectQuery(ctx context.Context, s portal.Session, name string) error {
	page, err := d.page(s)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.dismissPopups(page)

	dropdown := page.Locator(queryDropdown)
	if err := dropdown.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		return fmt.Errorf("query dropdown not visible: %w", err)
	}

	html, err := page.Content()
	if err != nil {
		return fmt.Errorf("failed to read page: %w", err)
	}
	options, err := ParseQueryOptions(html)
	if err != nil {
		return err
	}
	option, ok := MatchQueryOption(options, name)
	if !ok {
		return fmt.Errorf("query %q not found in dropdown", name)
	}

	if ws, ok := s.(*session); ok {
		ws.query = name
	}
	if _, err := dropdown.SelectOption(playwright.SelectOptionValues{Values: &[]string{option.Value}}); err != nil {
		return fmt.Errorf("failed to select query %q: %w", name, err)
	}
	if err := d.settle(page); err != nil {
		return err
	}
	page.WaitForTimeout(500)
	d.dismissPopups(page)

	proceed := page.Locator("#MainContent_btnProceed")
	if err := proceed.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	}); err != nil {
		return fmt.Errorf("proceed button not visible: %w", err)
	}
	if err := proceed.Click(); err != nil {
		return fmt.Errorf("failed to click proceed: %w", err)
	}
	return d.settle(page)
}

// SubmitForm clears stuck overlays and clicks Save and Execute
func (d *Driver) SubmitForm(ctx context.Context, s portal.Session) error {
	page, err := d.page(s)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.dismissPopups(page)
	d.hideOverlays(page)

	submit := page.Locator("#MainContent_btnSaveExecute")
	visible, err := submit.IsVisible()
	if err != nil || !visible {
		return fmt.Errorf("save and execute button not visible")
	}
	d.dismissPopups(page)
	if err := submit.Click(); err != nil {
		return fmt.Errorf("failed to click save and execute: %w", err)
	}
	return d.settle(page)
}

// ListGridRows reads the data rows of the results grid
func (d *Driver) ListGridRows(ctx context.Context, s portal.Session) ([]portal.Target, error) {
	page, err := d.page(s)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.dismissPopups(page)

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return ParseGridRows(html)
}

// ObservePager reads the visible page numbers from the grid footer
func (d *Driver) ObservePager(ctx context.Context, s portal.Session) (portal.PagerState, error) {
	info, err := d.pager(ctx, s)
	return info.State, err
}

func (d *Driver) pager(ctx context.Context, s portal.Session) (pagerInfo, error) {
	page, err := d.page(s)
	if err != nil {
		return pagerInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return pagerInfo{}, err
	}
	html, err := page.Content()
	if err != nil {
		return pagerInfo{}, fmt.Errorf("failed to read page: %w", err)
	}
	return ParsePager(html)
}

// ActivatePage clicks a visible page number. The page already shown is left as is.
func (d *Driver) ActivatePage(ctx context.Context, s portal.Session, n int) error {
	info, err := d.pager(ctx, s)
	if err != nil {
		return err
	}
	if info.Current == n {
		return nil
	}
	if !info.State.Contains(n) {
		return fmt.Errorf("page %d is not in the visible pager window %v", n, info.State.VisibleWindow)
	}
	page, _ := d.page(s)
	return d.clickPager(page, pageLinkSelector(n, fmt.Sprint(n)))
}

// AdvancePageWindow clicks the trailing "..." link, which opens the first page of the next window
func (d *Driver) AdvancePageWindow(ctx context.Context, s portal.Session) error {
	info, err := d.pager(ctx, s)
	if err != nil {
		return err
	}
	if info.NextWindow == 0 {
		return fmt.Errorf("no further pager window after page %d", info.State.Max())
	}
	page, _ := d.page(s)
	return d.clickPager(page, pageLinkSelector(info.NextWindow, "..."))
}

func (d *Driver) clickPager(page playwright.Page, selector string) error {
	d.dismissPopups(page)
	if err := page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("failed to click pager link: %w", err)
	}
	return d.settle(page)
}

// settle waits for the network to go quiet after a postback
func (d *Driver) settle(page playwright.Page) error {
	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return fmt.Errorf("page did not settle: %w", err)
	}
	return nil
}

// dismissPopups closes the portal's feedback survey wherever it shows up
func (d *Driver) dismissPopups(page playwright.Page) {
	noThanks := page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: "No, thanks."})
	if visible, err := noThanks.IsVisible(); err == nil && visible {
		if err := noThanks.Click(); err == nil {
			d.logger.Debug("Dismissed feedback popup")
		}
		page.WaitForTimeout(100)
		return
	}

	for _, frame := range page.Frames() {
		btn := frame.GetByRole(*playwright.AriaRoleButton, playwright.FrameGetByRoleOptions{Name: "No, thanks."})
		if visible, err := btn.IsVisible(); err == nil && visible {
			if err := btn.Click(); err == nil {
				d.logger.Debug("Dismissed feedback popup in frame")
			}
			page.WaitForTimeout(200)
			return
		}
	}
}

// hideOverlays hides modal overlays that stay behind after a dialog closes
func (d *Driver) hideOverlays(page playwright.Page) {
	if _, err := page.Evaluate(`document.querySelectorAll('.TelerikModalOverlay').forEach(el => el.style.display = 'none')`); err != nil {
		d.logger.WithError(err).Debug("Failed to hide overlays")
	}
}

// screenshot saves the current page for later inspection
func (d *Driver) screenshot(page playwright.Page, name string) {
	dir := d.opts.ScreenshotDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		d.logger.WithError(err).Warn("Failed to create screenshot directory")
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, time.Now().Format("20060102_150405")))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		d.logger.WithError(err).Warn("Failed to take screenshot")
		return
	}
	d.logger.WithField("path", path).Info("Saved screenshot")
}

// acceptDialogs accepts every JavaScript dialog until the returned stop func
// is called, and reports whether any dialog appeared.
func (d *Driver) acceptDialogs(page playwright.Page) (seen func() bool, stop func()) {
	var fired atomic.Bool
	handler := func(dialog playwright.Dialog) {
		d.logger.WithField("message", dialog.Message()).Info("Accepting portal dialog")
		fired.Store(true)
		if err := dialog.Accept(); err != nil {
			d.logger.WithError(err).Warn("Failed to accept dialog")
		}
	}
	page.On("dialog", handler)
	return fired.Load, func() { page.RemoveListener("dialog", handler) }
}

var _ portal.Driver = (*Driver)(nil)
