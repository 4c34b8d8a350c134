package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/tui/styles"
)

// Layout constants for inspector
const (
	InspectorBorderHeight     = 2
	InspectorScrollIndicators = 2
)

// Inspector displays every column of the selected row, plus its description
type Inspector struct {
	item    domain.ListItem
	headers []string
	width   int
	height  int
	offset  int // scroll offset
}

// NewInspector creates a new inspector component
func NewInspector() Inspector {
	return Inspector{}
}

// SetItem sets the item to display. Scroll resets only when the item changes.
func (i *Inspector) SetItem(item domain.ListItem, headers []string) {
	if item == nil || i.item == nil || item.GetID() != i.item.GetID() {
		i.offset = 0
	}
	i.item = item
	i.headers = headers
}

// SetSize updates the component dimensions
func (i *Inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
}

// HasItem returns true if there is an item to display
func (i Inspector) HasItem() bool {
	return i.item != nil
}

// ScrollBy moves the body by delta lines. View clamps the result.
func (i *Inspector) ScrollBy(delta int) {
	i.offset = max(0, i.offset+delta)
}

// maxVisible is the number of body lines that fit
func (i Inspector) maxVisible() int {
	// -1 for title, -1 for blank line
	return max(1, i.height-InspectorBorderHeight-InspectorScrollIndicators-2)
}

// View renders the component
func (i Inspector) View() string {
	style := styles.InactiveBorder
	frameW, frameH := style.GetFrameSize()
	contentWidth := max(10, i.width-frameW)

	title := "No item selected"
	if i.item != nil {
		title = i.item.GetTitle()
	}
	titleLine := styles.AccentStyle.Render(styles.Truncate(title, contentWidth))

	bodyLines := splitLines(i.renderBody(contentWidth))
	available := i.maxVisible()

	maxOffset := max(0, len(bodyLines)-available)
	offset := min(i.offset, maxOffset)
	end := min(offset+available, len(bodyLines))
	visible := bodyLines[offset:end]

	up := " "
	if offset > 0 {
		up = styles.DimStyle.Render("↑ more")
	}
	down := " "
	if end < len(bodyLines) {
		down = styles.DimStyle.Render("↓ more")
	}

	parts := []string{titleLine, "", up}
	parts = append(parts, visible...)
	for range available - len(visible) {
		parts = append(parts, "")
	}
	parts = append(parts, down)

	// Subtract frame (border) size so total rendered size equals i.width x i.height
	return style.
		Width(max(0, i.width-frameW)).
		Height(max(0, i.height-frameH)).
		Render(strings.Join(parts, "\n"))
}

// renderBody lists each column as "HEADER  value", then the wrapped description
func (i Inspector) renderBody(width int) string {
	if i.item == nil {
		return ""
	}

	labelWidth := 0
	for _, h := range i.headers {
		labelWidth = max(labelWidth, lipgloss.Width(h))
	}
	valueWidth := max(1, width-labelWidth-2)

	var b strings.Builder
	for n, value := range i.item.Columns() {
		label := ""
		if n < len(i.headers) {
			label = i.headers[n]
		}
		style := styles.TitleStyle
		if label == "STATUS" {
			style = styles.StatusStyle(value)
		}
		b.WriteString(styles.HeaderStyle.Render(styles.Pad(label, labelWidth)))
		b.WriteString("  ")
		b.WriteString(style.Render(styles.Truncate(value, valueWidth)))
		b.WriteString("\n")
	}

	if desc := strings.TrimSpace(i.item.GetDescription()); desc != "" {
		b.WriteString("\n")
		b.WriteString(styles.NormalRowStyle.Render(wordWrap(desc, width)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// splitLines splits a string into lines, returning empty slice for empty string
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// wordWrap wraps text to the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lineLen := 0

	for i, word := range strings.Fields(text) {
		wordLen := lipgloss.Width(word)

		if lineLen+wordLen+1 > width && lineLen > 0 {
			result.WriteString("\n")
			lineLen = 0
		}

		if i > 0 && lineLen > 0 {
			result.WriteString(" ")
			lineLen++
		}

		result.WriteString(word)
		lineLen += wordLen
	}

	return result.String()
}
