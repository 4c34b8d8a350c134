package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
	"github.com/palmgate/palmgate/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}
	s := m.activeScreen()

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	if m.ShowInspector {
		m.syncInspector()
		b.WriteString(m.inspector.View())
	} else {
		b.WriteString(s.renderTable(m.Width, listRows(m.Height)))
	}
	b.WriteString("\n")
	b.WriteString(s.renderStatus(m.spinner.View(), m.Width))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.Screens))
	for i, s := range m.Screens {
		label := s.Entry.Title
		if s.Status != "" {
			label += ":" + s.Status
		}
		if i == m.Active {
			tabs[i] = styles.ActiveTabStyle.Render(label)
		} else {
			tabs[i] = styles.InactiveTabStyle.Render(label)
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.ServerURL != "" {
		host := styles.DimStyle.Render(m.ServerURL)
		if gap := m.Width - lipgloss.Width(bar) - lipgloss.Width(host); gap > 0 {
			bar += strings.Repeat(" ", gap) + host
		}
	}
	return bar
}

func (m Model) renderFooter() string {
	if m.ShowHelp {
		return m.help.FullHelpView(m.keys.FullHelp())
	}
	left := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.StatusMsg == "" {
		return left
	}
	style := styles.AccentStyle
	if m.StatusIsErr {
		style = styles.ErrorStyle
	}
	msg := style.Render(m.StatusMsg)
	if gap := m.Width - lipgloss.Width(left) - lipgloss.Width(msg); gap > 0 {
		return left + strings.Repeat(" ", gap) + msg
	}
	return msg
}

// renderTable draws the header and the visible rows, padded to rows lines.
func (s *Screen) renderTable(width, rows int) string {
	visible := s.matches[min(s.Offset, len(s.matches)):min(s.Offset+rows, len(s.matches))]
	cells := make([][]string, len(visible))
	for i, m := range visible {
		cells[i] = m.Item.Columns()
	}
	widths := columnWidths(s.Entry.Headers, cells, width)

	lines := make([]string, 0, rows+1)
	lines = append(lines, renderCells(s.Entry.Headers, widths, styles.HeaderStyle, false, nil, -1, ""))

	switch {
	case len(visible) == 0 && s.state.LoadingInitial:
		lines = append(lines, styles.DimStyle.Render("Loading "+strings.ToLower(s.Entry.Title)+"..."))
	case len(visible) == 0 && s.Query != "" && len(s.state.Items) > 0:
		lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("No loaded rows match %q", s.Query)))
	case len(visible) == 0 && s.state.Phase() == paging.PhaseLoaded:
		lines = append(lines, styles.DimStyle.Render("No "+strings.ToLower(s.Entry.Title)+"."))
	}

	for i, m := range visible {
		selected := s.Offset+i == s.Cursor
		base := styles.NormalRowStyle
		if selected {
			base = styles.SelectedRowStyle
		}
		titleCol := -1
		title := m.Item.GetTitle()
		for c, v := range cells[i] {
			if v == title {
				titleCol = c
				break
			}
		}
		lines = append(lines, renderCells(cells[i], widths, base, selected, m.MatchedIndexes, titleCol, m.Item.GetStatus()))
	}

	for len(lines) < rows+1 {
		lines = append(lines, "")
	}
	return strings.Join(lines[:rows+1], "\n")
}

// renderCells lays out one row. The cell at titleCol gets match highlighting;
// the cell equal to status is colored by it.
func renderCells(cells []string, widths []int, base lipgloss.Style, selected bool, matched []int, titleCol int, status string) string {
	gap := base.Render(strings.Repeat(" ", ColumnGap))
	parts := make([]string, len(widths))
	for i, w := range widths {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		padded := styles.Pad(v, w)
		switch {
		case i == titleCol:
			parts[i] = styles.Highlight(padded, matched, base)
		case !selected && status != "" && v == status:
			parts[i] = styles.StatusStyle(status).Render(padded)
		default:
			parts[i] = base.Render(padded)
		}
	}
	return strings.Join(parts, gap)
}

// renderStatus is the line under the table: loading, error, or list position.
func (s *Screen) renderStatus(spin string, width int) string {
	st := s.state
	var line string
	switch {
	case s.Filtering:
		line = s.filterInput.View()
	case st.LoadingInitial:
		line = styles.SpinnerStyle.Render(spin) + " " + styles.DimStyle.Render("Loading "+strings.ToLower(s.Entry.Title)+"...")
	case st.LoadingMore:
		line = styles.SpinnerStyle.Render(spin) + " " + styles.DimStyle.Render(fmt.Sprintf("Loading page %d...", st.Page))
	case st.Err != nil:
		line = styles.ErrorStyle.Render("✗ "+st.Error) + styles.DimStyle.Render(errorHint(st))
	default:
		line = styles.DimStyle.Render(position(s))
	}
	if s.Query != "" && !s.Filtering {
		line += "  " + styles.FilterPromptStyle.Render("/"+s.Query)
	}
	if s.Status != "" {
		line += "  " + styles.BadgeStyle.Render(s.Status)
	}
	return lipgloss.NewStyle().MaxWidth(max(width, 1)).Render(line)
}

func errorHint(st paging.State[domain.ListItem]) string {
	switch paging.KindOf(st.Err) {
	case paging.KindAuth:
		return "  (run `palmgate token` to update the API token)"
	default:
		if st.HasMore && paging.IsRetryable(st.Err) {
			return "  (enter or scroll to retry)"
		}
		return "  (enter or r to reload)"
	}
}

func position(s *Screen) string {
	st := s.state
	n := len(st.Items)
	where := ""
	if len(s.matches) > 0 {
		where = fmt.Sprintf("%d/%d", s.Cursor+1, len(s.matches))
	}
	switch {
	case st.Empty():
		return "No " + strings.ToLower(s.Entry.Title)
	case !st.HasMore:
		return strings.TrimSpace(fmt.Sprintf("%s  %d rows, end of list", where, n))
	case n == 0:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%s  %d rows loaded", where, n))
	}
}
