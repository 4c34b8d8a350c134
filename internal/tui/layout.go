package tui

import "github.com/charmbracelet/lipgloss"

const (
	// tab bar, header row, status line, help line
	ChromeHeight = 4

	MinColumnWidth = 4
	MaxColumnWidth = 36
	ColumnGap      = 2
)

// columnWidths sizes table columns to their content, then shrinks the widest
// ones until the table fits in width.
func columnWidths(headers []string, rows [][]string, width int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}
	for i := range widths {
		widths[i] = max(MinColumnWidth, min(widths[i], MaxColumnWidth))
	}

	total := func() int {
		sum := ColumnGap * max(0, len(widths)-1)
		for _, w := range widths {
			sum += w
		}
		return sum
	}
	for total() > width {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= MinColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

// listRows is how many table rows fit in a window of the given height.
func listRows(height int) int {
	return max(1, height-ChromeHeight)
}
