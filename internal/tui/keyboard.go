package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKey routes key presses. While the filter box is focused every key
// except ctrl+c goes to it.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.activeScreen()

	if s.Filtering {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, s.updateFilter(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.ShowHelp = !m.ShowHelp
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		m.Active = (m.Active + 1) % len(m.Screens)
		return m, m.activate()

	case key.Matches(msg, m.keys.PrevTab):
		m.Active = (m.Active - 1 + len(m.Screens)) % len(m.Screens)
		return m, m.activate()

	case key.Matches(msg, m.keys.Inspect):
		m.ShowInspector = !m.ShowInspector
		return m, nil

	case m.ShowInspector && key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		m.syncInspector()
		delta := s.rows
		if key.Matches(msg, m.keys.PageUp) {
			delta = -delta
		}
		m.inspector.ScrollBy(delta)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		s.move(-1)
	case key.Matches(msg, m.keys.Down):
		s.move(1)
	case key.Matches(msg, m.keys.PageUp):
		s.move(-s.rows)
	case key.Matches(msg, m.keys.PageDown):
		s.move(s.rows)
	case key.Matches(msg, m.keys.Home):
		s.move(-len(s.matches))
	case key.Matches(msg, m.keys.End):
		s.move(len(s.matches))

	case key.Matches(msg, m.keys.Refresh):
		s.refresh()
		return m, m.setStatus("Refreshing "+s.Entry.Title, false)

	case key.Matches(msg, m.keys.Status):
		if len(s.Entry.Statuses) == 0 {
			return m, m.setStatus(s.Entry.Title+" cannot be filtered by status", true)
		}
		cmd := s.cycleStatus(m.ctx)
		label := s.Status
		if label == "" {
			label = "all"
		}
		return m, tea.Batch(cmd, m.setStatus("Status: "+label, false))

	case key.Matches(msg, m.keys.Filter):
		return m, s.beginFilter()

	case key.Matches(msg, m.keys.Escape):
		s.clearFilter()

	case key.Matches(msg, m.keys.Retry):
		if s.state.Err != nil {
			s.retry()
			return m, m.setStatus("Retrying", false)
		}
	}
	return m, nil
}
