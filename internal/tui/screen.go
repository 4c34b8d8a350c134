package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palmgate/palmgate/internal/catalog"
	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
	"github.com/palmgate/palmgate/internal/search"
	"github.com/palmgate/palmgate/internal/store"
)

// Screen is one list tab. It owns the paging controller for its resource and
// rebuilds it whenever the status filter changes.
type Screen struct {
	Entry catalog.Entry

	repo     domain.Repository
	prefs    *store.PrefsStore
	opts     []paging.Option
	prefetch int
	logger   *slog.Logger

	ctrl   *paging.Controller[domain.ListItem]
	cancel context.CancelFunc
	state  paging.State[domain.ListItem]

	// Status is the server-side status filter; "" lists everything.
	Status string
	// Query filters loaded rows locally.
	Query       string
	Filtering   bool
	filterInput textinput.Model
	matches     []search.Match
	recall      int // index into recent queries while browsing them, -1 otherwise

	Cursor int
	Offset int
	rows   int // visible list rows
}

func newScreen(entry catalog.Entry, repo domain.Repository, prefs *store.PrefsStore, prefetch int, logger *slog.Logger, opts []paging.Option) *Screen {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter loaded rows"
	ti.CharLimit = 64

	s := &Screen{
		Entry:       entry,
		repo:        repo,
		prefs:       prefs,
		opts:        append([]paging.Option{paging.WithLogger(logger)}, opts...),
		prefetch:    prefetch,
		logger:      logger.With("resource", string(entry.Resource)),
		filterInput: ti,
		recall:      -1,
		rows:        10,
	}
	if prefs != nil {
		if p, ok := prefs.Screen(entry.Resource); ok {
			if entry.AcceptsStatus(p.Status) {
				s.Status = p.Status
			}
			s.Query = p.Query
			s.filterInput.SetValue(p.Query)
		}
	}
	s.rebuildMatches()
	return s
}

// Started reports whether the screen has a controller.
func (s *Screen) Started() bool {
	return s.ctrl != nil
}

// State returns the last snapshot the screen received.
func (s *Screen) State() paging.State[domain.ListItem] {
	return s.state
}

// Matches returns the rows currently shown, after local filtering.
func (s *Screen) Matches() []search.Match {
	return s.matches
}

// start replaces the controller with one for the current status filter and
// loads page 1. The returned command listens to the new controller.
func (s *Screen) start(ctx context.Context) tea.Cmd {
	s.stop()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.ctrl = s.Entry.NewController(ctx, s.repo, domain.Filter{Status: s.Status}, s.opts...)
	ch := s.ctrl.Observe(ctx)
	s.Cursor, s.Offset = 0, 0

	s.logger.Debug("screen started", "status", s.Status)
	s.ctrl.Refresh()
	s.state = s.ctrl.State()
	s.rebuildMatches()
	return listenCmd(s.Entry.Resource, s.ctrl, ch)
}

// stop cancels the controller; its stream closes and the listener exits.
func (s *Screen) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// apply takes a snapshot from the controller. Snapshots from a replaced
// controller are dropped and their listener is not resumed.
func (s *Screen) apply(msg StateMsg) tea.Cmd {
	if msg.Ctrl != s.ctrl {
		return nil
	}
	s.state = msg.State
	s.rebuildMatches()
	s.clamp()
	// Keep filling the screen, but never retry a failure on our own.
	if s.Query == "" && s.state.Err == nil {
		s.maybePrefetch()
	}
	return msg.Next
}

func (s *Screen) rebuildMatches() {
	s.matches = search.Filter(s.Query, s.state.Items)
}

func (s *Screen) clamp() {
	n := len(s.matches)
	s.Cursor = max(0, min(s.Cursor, n-1))
	if s.Cursor < s.Offset {
		s.Offset = s.Cursor
	}
	if s.rows > 0 && s.Cursor >= s.Offset+s.rows {
		s.Offset = s.Cursor - s.rows + 1
	}
	s.Offset = max(0, min(s.Offset, max(0, n-s.rows)))
}

// maybePrefetch asks for the next page once the cursor is within prefetch
// rows of the end of what is loaded.
func (s *Screen) maybePrefetch() {
	if s.ctrl == nil || !s.state.HasMore || s.state.Loading() {
		return
	}
	if s.Cursor >= len(s.matches)-1-s.prefetch {
		s.ctrl.LoadNextPage()
	}
}

// move shifts the cursor by delta rows. Scrolling toward the end loads more.
func (s *Screen) move(delta int) {
	s.Cursor += delta
	s.clamp()
	if delta > 0 {
		s.maybePrefetch()
	}
}

func (s *Screen) setRows(rows int) {
	s.rows = max(1, rows)
	s.clamp()
}

// refresh reloads from page 1.
func (s *Screen) refresh() {
	if s.ctrl == nil {
		return
	}
	s.Cursor, s.Offset = 0, 0
	s.ctrl.Refresh()
}

// retry repeats the failed fetch: the next page when the list can still grow
// and the failure may be transient, otherwise a full refresh.
func (s *Screen) retry() {
	if s.ctrl == nil || s.state.Err == nil {
		return
	}
	if s.state.HasMore && len(s.state.Items) > 0 && paging.IsRetryable(s.state.Err) {
		s.ctrl.LoadNextPage()
		return
	}
	s.refresh()
}

// cycleStatus moves to the next status filter and restarts the list.
func (s *Screen) cycleStatus(ctx context.Context) tea.Cmd {
	s.Status = s.Entry.NextStatus(s.Status)
	s.savePrefs()
	return s.start(ctx)
}

func (s *Screen) beginFilter() tea.Cmd {
	s.Filtering = true
	s.recall = -1
	s.filterInput.SetValue(s.Query)
	s.filterInput.CursorEnd()
	return s.filterInput.Focus()
}

// updateFilter routes a key to the filter box while it is focused.
func (s *Screen) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		s.Filtering = false
		s.filterInput.Blur()
		if s.prefs != nil {
			if err := s.prefs.AddRecentQuery(s.Query); err != nil {
				s.logger.Warn("failed to save recent query", "error", err)
			}
		}
		s.savePrefs()
		return nil
	case tea.KeyEsc:
		s.clearFilter()
		return nil
	case tea.KeyUp:
		s.recallQuery(1)
		return nil
	case tea.KeyDown:
		s.recallQuery(-1)
		return nil
	}

	var cmd tea.Cmd
	s.filterInput, cmd = s.filterInput.Update(msg)
	s.setQuery(s.filterInput.Value())
	return cmd
}

// recallQuery steps through recent queries: +1 is older, -1 is newer.
// Stepping past the newest clears the box.
func (s *Screen) recallQuery(step int) {
	if s.prefs == nil {
		return
	}
	recent := s.prefs.RecentQueries()
	if len(recent) == 0 {
		return
	}
	s.recall = min(max(s.recall+step, -1), len(recent)-1)

	q := ""
	if s.recall >= 0 {
		q = recent[s.recall]
	}
	s.filterInput.SetValue(q)
	s.filterInput.CursorEnd()
	s.setQuery(q)
}

func (s *Screen) setQuery(q string) {
	if q == s.Query {
		return
	}
	s.Query = q
	s.Cursor, s.Offset = 0, 0
	s.rebuildMatches()
}

func (s *Screen) clearFilter() {
	s.Filtering = false
	s.filterInput.Blur()
	s.filterInput.SetValue("")
	if s.Query == "" {
		return
	}
	s.Query = ""
	s.Cursor, s.Offset = 0, 0
	s.rebuildMatches()
	s.savePrefs()
}

func (s *Screen) savePrefs() {
	if s.prefs == nil {
		return
	}
	err := s.prefs.SaveScreen(s.Entry.Resource, store.ScreenPrefs{Status: s.Status, Query: s.Query})
	if err != nil {
		s.logger.Warn("failed to save screen prefs", "error", err)
	}
}

// selected returns the item under the cursor.
func (s *Screen) selected() (domain.ListItem, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.matches) {
		return nil, false
	}
	return s.matches[s.Cursor].Item, true
}
