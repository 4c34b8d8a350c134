package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palmgate/palmgate/internal/catalog"
	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
	"github.com/palmgate/palmgate/internal/store"
)

const testPageSize = 10

// fakeRepo serves users and devices from memory. Other lists are not used.
type fakeRepo struct {
	domain.Repository

	mu       sync.Mutex
	pages    int
	empty    bool
	failures map[int]error // page -> error, consumed on use
	filters  []domain.Filter
}

func newFakeRepo(pages int) *fakeRepo {
	return &fakeRepo{pages: pages, failures: map[int]error{}}
}

func (r *fakeRepo) failNext(page int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[page] = err
}

func (r *fakeRepo) lastFilter() domain.Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filters[len(r.filters)-1]
}

func (r *fakeRepo) record(f domain.Filter, page int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
	if err, ok := r.failures[page]; ok {
		delete(r.failures, page)
		return err
	}
	return nil
}

func (r *fakeRepo) ListDevices(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.Device], error) {
	if err := r.record(f, page); err != nil {
		return paging.PageResult[*domain.Device]{}, err
	}
	var items []*domain.Device
	if r.empty {
		return paging.PageResult[*domain.Device]{TotalPages: 1}, nil
	}
	for i := range size {
		n := (page-1)*size + i + 1
		items = append(items, &domain.Device{
			ID:     fmt.Sprintf("dev-%02d", n),
			Name:   fmt.Sprintf("Scanner %d", n),
			Serial: fmt.Sprintf("SN%d", n),
			Status: "online",
		})
	}
	return paging.PageResult[*domain.Device]{Items: items, TotalPages: r.pages}, nil
}

func (r *fakeRepo) ListUsers(_ context.Context, f domain.Filter, page, size int) (paging.PageResult[*domain.User], error) {
	if err := r.record(f, page); err != nil {
		return paging.PageResult[*domain.User]{}, err
	}
	return paging.PageResult[*domain.User]{Items: []*domain.User{{ID: "u1", Name: "Ada"}}, TotalPages: 1}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDeviceScreen(t *testing.T, repo *fakeRepo, prefs *store.PrefsStore) *Screen {
	t.Helper()
	entry, err := catalog.Lookup(domain.ResourceDevices)
	require.NoError(t, err)
	s := newScreen(entry, repo, prefs, 0, quietLogger(), []paging.Option{paging.WithPageSize(testPageSize)})
	t.Cleanup(s.stop)
	return s
}

// settle feeds snapshots to s until one arrives that is not loading, and
// returns the listener for the next one.
func settle(t *testing.T, s *Screen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	for {
		require.NotNil(t, cmd)
		msg, ok := cmd().(StateMsg)
		require.True(t, ok, "listener stopped")
		cmd = s.apply(msg)
		if !msg.State.Loading() {
			return cmd
		}
	}
}

func TestScreenLoadsFirstPage(t *testing.T) {
	repo := newFakeRepo(3)
	s := newDeviceScreen(t, repo, nil)
	assert.False(t, s.Started())

	settle(t, s, s.start(context.Background()))

	assert.True(t, s.Started())
	st := s.State()
	assert.Len(t, st.Items, testPageSize)
	assert.True(t, st.HasMore)
	assert.Len(t, s.Matches(), testPageSize)
	assert.Equal(t, "", repo.lastFilter().Status)
}

func TestScreenScrollLoadsNextPage(t *testing.T) {
	repo := newFakeRepo(2)
	s := newDeviceScreen(t, repo, nil)
	listen := settle(t, s, s.start(context.Background()))

	s.move(testPageSize - 1)
	listen = settle(t, s, listen)

	st := s.State()
	assert.Len(t, st.Items, 2*testPageSize)
	assert.False(t, st.HasMore)
	assert.Equal(t, testPageSize-1, s.Cursor)

	// End of list: moving further fetches nothing.
	s.move(100)
	assert.False(t, s.State().Loading())
	assert.NotNil(t, listen)
}

func TestScreenErrorAndRetry(t *testing.T) {
	repo := newFakeRepo(3)
	s := newDeviceScreen(t, repo, nil)
	listen := settle(t, s, s.start(context.Background()))

	repo.failNext(2, &paging.Error{Kind: paging.KindServer, Status: 503, Msg: "maintenance window"})
	s.move(testPageSize - 1)
	listen = settle(t, s, listen)

	st := s.State()
	require.Error(t, st.Err)
	assert.Equal(t, "maintenance window", st.Error)
	assert.Len(t, st.Items, testPageSize)
	assert.True(t, st.HasMore)
	assert.Contains(t, s.renderStatus("", 200), "maintenance window")

	s.retry()
	settle(t, s, listen)

	st = s.State()
	assert.NoError(t, st.Err)
	assert.Len(t, st.Items, 2*testPageSize)
}

func TestScreenRetryRefreshesAfterPermanentError(t *testing.T) {
	repo := newFakeRepo(3)
	s := newDeviceScreen(t, repo, nil)
	listen := settle(t, s, s.start(context.Background()))

	repo.failNext(2, &paging.Error{Kind: paging.KindDecode, Msg: "malformed response"})
	s.move(testPageSize - 1)
	listen = settle(t, s, listen)

	st := s.State()
	require.Error(t, st.Err)
	assert.True(t, st.HasMore)
	assert.Contains(t, s.renderStatus("", 200), "r to reload")

	s.retry()
	settle(t, s, listen)

	st = s.State()
	assert.NoError(t, st.Err)
	assert.Len(t, st.Items, testPageSize)
	assert.Equal(t, 1, st.Pages)
	assert.Equal(t, 0, s.Cursor)
}

func TestScreenEmptyList(t *testing.T) {
	repo := newFakeRepo(1)
	repo.empty = true
	s := newDeviceScreen(t, repo, nil)
	settle(t, s, s.start(context.Background()))

	assert.True(t, s.State().Empty())
	assert.Contains(t, s.renderStatus("", 120), "No devices")
}

func TestScreenStatusCycleDropsOldController(t *testing.T) {
	repo := newFakeRepo(1)
	s := newDeviceScreen(t, repo, nil)
	ctx := context.Background()
	settle(t, s, s.start(ctx))
	old := s.ctrl

	settle(t, s, s.cycleStatus(ctx))
	assert.Equal(t, "online", s.Status)
	assert.Equal(t, "online", repo.lastFilter().Status)
	assert.NotSame(t, old, s.ctrl)

	before := s.State()
	next := s.apply(StateMsg{Resource: domain.ResourceDevices, Ctrl: old, State: paging.State[domain.ListItem]{}})
	assert.Nil(t, next)
	assert.Equal(t, before.Items, s.State().Items)
}

func TestScreenLocalFilter(t *testing.T) {
	prefs, err := store.NewPrefsStore("", "")
	require.NoError(t, err)

	repo := newFakeRepo(1)
	s := newDeviceScreen(t, repo, prefs)
	settle(t, s, s.start(context.Background()))

	s.beginFilter()
	assert.True(t, s.Filtering)
	s.updateFilter(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("scanner 7")})
	require.Len(t, s.Matches(), 1)
	assert.Equal(t, "dev-07", s.Matches()[0].Item.GetID())

	s.updateFilter(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, s.Filtering)
	assert.Equal(t, "scanner 7", s.Query)
	assert.Equal(t, []string{"scanner 7"}, prefs.RecentQueries())
	p, ok := prefs.Screen(domain.ResourceDevices)
	require.True(t, ok)
	assert.Equal(t, "scanner 7", p.Query)

	s.clearFilter()
	assert.Empty(t, s.Query)
	assert.Len(t, s.Matches(), testPageSize)
}

func TestScreenFilterRecallsRecentQueries(t *testing.T) {
	prefs, err := store.NewPrefsStore("", "")
	require.NoError(t, err)
	require.NoError(t, prefs.AddRecentQuery("scanner 3"))
	require.NoError(t, prefs.AddRecentQuery("scanner 7"))

	s := newDeviceScreen(t, newFakeRepo(1), prefs)
	settle(t, s, s.start(context.Background()))

	s.beginFilter()
	s.updateFilter(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "scanner 7", s.Query)
	assert.Equal(t, "scanner 7", s.filterInput.Value())
	require.Len(t, s.Matches(), 1)
	assert.Equal(t, "dev-07", s.Matches()[0].Item.GetID())

	s.updateFilter(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "scanner 3", s.Query)

	// Oldest entry: further steps stay put.
	s.updateFilter(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "scanner 3", s.Query)

	s.updateFilter(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "scanner 7", s.Query)
	s.updateFilter(tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, s.Query)
	assert.Len(t, s.Matches(), testPageSize)

	s.updateFilter(tea.KeyMsg{Type: tea.KeyUp})
	s.updateFilter(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, s.Filtering)
	assert.Equal(t, []string{"scanner 7", "scanner 3"}, prefs.RecentQueries())
}

func TestScreenRestoresPrefs(t *testing.T) {
	prefs, err := store.NewPrefsStore("", "")
	require.NoError(t, err)
	require.NoError(t, prefs.SaveScreen(domain.ResourceDevices, store.ScreenPrefs{Status: "maintenance", Query: "lobby"}))
	require.NoError(t, prefs.SaveScreen(domain.ResourceUsers, store.ScreenPrefs{Status: "bogus"}))

	s := newDeviceScreen(t, newFakeRepo(1), prefs)
	assert.Equal(t, "maintenance", s.Status)
	assert.Equal(t, "lobby", s.Query)

	users, err := catalog.Lookup(domain.ResourceUsers)
	require.NoError(t, err)
	u := newScreen(users, newFakeRepo(1), prefs, 0, quietLogger(), nil)
	assert.Empty(t, u.Status)
}

func TestRenderTable(t *testing.T) {
	repo := newFakeRepo(1)
	s := newDeviceScreen(t, repo, nil)
	settle(t, s, s.start(context.Background()))

	out := s.renderTable(120, 5)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[0], "SERIAL")
	assert.Contains(t, out, "Scanner 1")
	assert.NotContains(t, out, "Scanner 6")

	assert.Contains(t, s.renderStatus("", 120), "end of list")
}

func TestColumnWidthsFit(t *testing.T) {
	headers := []string{"ID", "NAME", "DESCRIPTION"}
	rows := [][]string{{"1", "a fairly long name here", strings.Repeat("x", 80)}}

	widths := columnWidths(headers, rows, 40)
	total := ColumnGap * (len(widths) - 1)
	for _, w := range widths {
		assert.GreaterOrEqual(t, w, MinColumnWidth)
		total += w
	}
	assert.LessOrEqual(t, total, 40)
	assert.Equal(t, []int{MinColumnWidth, 23, MaxColumnWidth}, columnWidths(headers, rows, 200))
}
