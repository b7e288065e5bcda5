package portal

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records one driver invocation
type Call struct {
	Op   string
	Args []string
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Op
	}
	return c.Op + "(" + strings.Join(c.Args, ",") + ")"
}

type mockSession struct {
	id     string
	closed bool
}

func (s *mockSession) ID() string { return s.id }

// MockDriver is an in-memory Driver for tests. It models a results grid split
// into pages and a pager that shows WindowSize page numbers at a time.
type MockDriver struct {
	mu sync.Mutex

	// Pages holds the grid rows of page 1, 2, ...
	Pages [][]Target
	// WindowSize is how many page numbers the pager shows; default 10
	WindowSize int
	// ResetOnDownload sends the grid back to page 1 after a successful download
	ResetOnDownload bool
	// StuckPager makes AdvancePageWindow succeed without moving the window
	StuckPager bool
	// Outcomes scripts TriggerDownload per target id; consumed in order, then OutcomeDownloaded
	Outcomes map[string][]Outcome

	errs     map[string][]error
	calls    []Call
	sessions int
	current  int
	winStart int
	dest     Destination
	query    string
	country  string

	// Submitted lists "query/code" for every successful SubmitForm
	Submitted []string
	// Downloaded lists target ids in the order they were downloaded
	Downloaded []string
}

// NewMockDriver creates a mock with the given grid pages
func NewMockDriver(pages ...[]Target) *MockDriver {
	return &MockDriver{
		Pages:      pages,
		WindowSize: 10,
		Outcomes:   make(map[string][]Outcome),
		errs:       make(map[string][]error),
		current:    1,
		winStart:   1,
	}
}

// Fail queues errors for an operation. key is either the op name
// ("SubmitForm") or the op and its first argument ("SubmitCountrySelection:DEU").
// Queued errors are consumed one per call.
func (m *MockDriver) Fail(key string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[key] = append(m.errs[key], errs...)
}

// Calls returns a copy of the call log
func (m *MockDriver) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times op was invoked
func (m *MockDriver) CallCount(op string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// SessionsOpened returns how many sessions were opened
func (m *MockDriver) SessionsOpened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions
}

// CurrentPage returns the page the grid is showing
func (m *MockDriver) CurrentPage() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// record logs the call and pops an injected error; callers hold m.mu
func (m *MockDriver) record(op string, args ...string) error {
	m.calls = append(m.calls, Call{Op: op, Args: args})
	keys := []string{op}
	if len(args) > 0 {
		keys = []string{op + ":" + args[0], op}
	}
	for _, key := range keys {
		if queue := m.errs[key]; len(queue) > 0 {
			m.errs[key] = queue[1:]
			if queue[0] != nil {
				return queue[0]
			}
			return nil
		}
	}
	return nil
}

func (m *MockDriver) live(s Session) error {
	ms, ok := s.(*mockSession)
	if !ok || ms == nil {
		return fmt.Errorf("unknown session %v", s)
	}
	if ms.closed {
		return fmt.Errorf("session %s is closed", ms.id)
	}
	return nil
}

func (m *MockDriver) windowSize() int {
	if m.WindowSize <= 0 {
		return 10
	}
	return m.WindowSize
}

// Open implements Driver
func (m *MockDriver) Open(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Open"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.sessions++
	m.current, m.winStart = 1, 1
	return &mockSession{id: fmt.Sprintf("mock-%d", m.sessions)}, nil
}

// Close implements Driver
func (m *MockDriver) Close(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Close"); err != nil {
		return err
	}
	if ms, ok := s.(*mockSession); ok && ms != nil {
		ms.closed = true
	}
	return nil
}

// Login implements Driver
func (m *MockDriver) Login(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Login"); err != nil {
		return err
	}
	return m.live(s)
}

// Navigate implements Driver
func (m *MockDriver) Navigate(ctx context.Context, s Session, dest Destination) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Navigate", dest.String()); err != nil {
		return err
	}
	if err := m.live(s); err != nil {
		return err
	}
	m.dest = dest
	m.query, m.country = "", ""
	if dest == DestinationResults {
		m.current, m.winStart = 1, 1
	}
	return nil
}

// SelectQuery implements Driver
func (m *MockDriver) SelectQuery(ctx context.Context, s Session, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SelectQuery", name); err != nil {
		return err
	}
	if err := m.live(s); err != nil {
		return err
	}
	if m.dest != DestinationAdvancedQuery {
		return fmt.Errorf("select query on %s page", m.dest)
	}
	m.query = name
	return nil
}

// SubmitCountrySelection implements Driver
func (m *MockDriver) SubmitCountrySelection(ctx context.Context, s Session, code, countryName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SubmitCountrySelection", code, countryName); err != nil {
		return err
	}
	if err := m.live(s); err != nil {
		return err
	}
	if m.query == "" {
		return fmt.Errorf("no query selected")
	}
	m.country = code
	return nil
}

// SubmitForm implements Driver
func (m *MockDriver) SubmitForm(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("SubmitForm", m.country); err != nil {
		return err
	}
	if err := m.live(s); err != nil {
		return err
	}
	if m.country == "" {
		return fmt.Errorf("no country selected")
	}
	m.Submitted = append(m.Submitted, m.query+"/"+m.country)
	m.query, m.country = "", ""
	return nil
}

// ListGridRows implements Driver
func (m *MockDriver) ListGridRows(ctx context.Context, s Session) ([]Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListGridRows"); err != nil {
		return nil, err
	}
	if err := m.live(s); err != nil {
		return nil, err
	}
	if m.current < 1 || m.current > len(m.Pages) {
		return nil, nil
	}
	rows := make([]Target, len(m.Pages[m.current-1]))
	copy(rows, m.Pages[m.current-1])
	return rows, nil
}

// ObservePager implements Driver
func (m *MockDriver) ObservePager(ctx context.Context, s Session) (PagerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ObservePager"); err != nil {
		return PagerState{}, err
	}
	if err := m.live(s); err != nil {
		return PagerState{}, err
	}
	if len(m.Pages) == 0 {
		return PagerState{}, nil
	}
	var window []int
	end := m.winStart + m.windowSize() - 1
	if end > len(m.Pages) {
		end = len(m.Pages)
	}
	for n := m.winStart; n <= end; n++ {
		window = append(window, n)
	}
	return PagerState{VisibleWindow: window, HasMoreWindow: end < len(m.Pages)}, nil
}

// ActivatePage implements Driver
func (m *MockDriver) ActivatePage(ctx context.Context, s Session, page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ActivatePage", fmt.Sprint(page)); err != nil {
		return err
	}
	if err := m.live(s); err != nil {
		return err
	}
	if page < m.winStart || page >= m.winStart+m.windowSize() || page > len(m.Pages) {
		return fmt.Errorf("page %d is not in the visible pager window", page)
	}
	m.current = page
	return nil
}

// AdvancePageWindow implements Driver
func (m *MockDriver) AdvancePageWindow(ctx context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("AdvancePageWindow"); err != nil {
		return err
	}
	if err := m.live(s); err != nil {
		return err
	}
	if m.StuckPager {
		return nil
	}
	next := m.winStart + m.windowSize()
	if next > len(m.Pages) {
		return fmt.Errorf("no further pager window")
	}
	// the "..." link opens the first page of the next window
	m.winStart, m.current = next, next
	return nil
}

// TriggerDownload implements Driver
func (m *MockDriver) TriggerDownload(ctx context.Context, s Session, targetID string) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("TriggerDownload", targetID); err != nil {
		return OutcomeError
	}
	if err := m.live(s); err != nil {
		return OutcomeError
	}

	outcome := OutcomeDownloaded
	if queue := m.Outcomes[targetID]; len(queue) > 0 {
		outcome = queue[0]
		m.Outcomes[targetID] = queue[1:]
	}
	if outcome == OutcomeDownloaded {
		m.Downloaded = append(m.Downloaded, targetID)
		if m.ResetOnDownload {
			m.current, m.winStart = 1, 1
		}
	}
	return outcome
}
