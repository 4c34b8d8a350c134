package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palmgate/palmgate/internal/catalog"
	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
	"github.com/palmgate/palmgate/internal/store"
	"github.com/palmgate/palmgate/internal/tui/components"
	"github.com/palmgate/palmgate/internal/tui/styles"
)

const (
	statusTimeout = 4 * time.Second
	pingTimeout   = 5 * time.Second
)

// Deps are the collaborators the UI is built from.
type Deps struct {
	Repo      domain.Repository
	Pinger    Pinger // optional
	Prefs     *store.PrefsStore
	Logger    *slog.Logger
	Paging    []paging.Option
	Prefetch  int
	ServerURL string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	ctx    context.Context
	pinger Pinger
	logger *slog.Logger

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	Screens []*Screen
	Active  int

	Width  int
	Height int

	inspector components.Inspector

	ShowHelp      bool
	ShowInspector bool
	ServerURL     string
	StatusMsg     string
	StatusIsErr   bool
	statusSeq     int
}

// NewModel creates a model with one screen per catalog entry. Screens load
// lazily the first time they are shown; ctx bounds every controller.
func NewModel(ctx context.Context, deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		ctx:       ctx,
		pinger:    deps.Pinger,
		logger:    logger,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		inspector: components.NewInspector(),
		ServerURL: deps.ServerURL,
	}
	for _, entry := range catalog.All() {
		m.Screens = append(m.Screens, newScreen(entry, deps.Repo, deps.Prefs, deps.Prefetch, logger, deps.Paging))
	}
	return m
}

// Init starts the first screen
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.activate()}
	if m.pinger != nil {
		cmds = append(cmds, PingCmd(m.ctx, m.pinger, pingTimeout))
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		for _, s := range m.Screens {
			s.setRows(listRows(m.Height))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		s := m.screen(msg.Resource)
		if s == nil {
			return m, nil
		}
		return m, s.apply(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PingResultMsg:
		if msg.Err != nil {
			m.logger.Warn("server ping failed", "error", msg.Err)
			if errors.Is(msg.Err, domain.ErrAuthFailed) {
				return m, m.setStatus("API token rejected", true)
			}
			return m, m.setStatus("Server unreachable: "+paging.Message(msg.Err), true)
		}
		m.logger.Info("server reachable", "latency", msg.Latency)
		return m, m.setStatus(fmt.Sprintf("Connected (%s)", msg.Latency.Round(time.Millisecond)), false)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}
	return m, nil
}

// Close stops every screen's controller.
func (m Model) Close() {
	for _, s := range m.Screens {
		s.stop()
	}
}

// syncInspector points the inspector at the active screen's selected row.
func (m *Model) syncInspector() {
	s := m.activeScreen()
	item, _ := s.selected()
	m.inspector.SetItem(item, s.Entry.Headers)
	m.inspector.SetSize(m.Width, listRows(m.Height)+1)
}

func (m Model) activeScreen() *Screen {
	return m.Screens[m.Active]
}

func (m Model) screen(r domain.Resource) *Screen {
	for _, s := range m.Screens {
		if s.Entry.Resource == r {
			return s
		}
	}
	return nil
}

// activate starts the active screen on first view.
func (m Model) activate() tea.Cmd {
	s := m.activeScreen()
	if s.Started() {
		return nil
	}
	s.setRows(listRows(m.Height))
	return s.start(m.ctx)
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.StatusMsg = msg
	m.StatusIsErr = isErr
	return ClearStatusCmd(m.statusSeq, statusTimeout)
}
