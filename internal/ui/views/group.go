package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// GroupHeader describes one leaf group line
type GroupHeader struct {
	Name       string
	Depth      int
	Expanded   bool
	IsCursor   bool
	Selected   int
	Total      int
	ShowCounts bool
	Filter     string
}

// ParentHeader describes a hierarchy node above the leaf groups
type ParentHeader struct {
	Name     string
	Depth    int
	Selected int
}

// GroupRenderer handles rendering of group headers
type GroupRenderer struct {
	styles *Styles
}

// NewGroupRenderer creates a new group renderer
func NewGroupRenderer(styles *Styles) *GroupRenderer {
	return &GroupRenderer{
		styles: styles,
	}
}

// RenderGroupHeader renders a leaf group header
func (g *GroupRenderer) RenderGroupHeader(h GroupHeader, width int) string {
	arrow := "▶"
	if h.Expanded {
		arrow = "▼"
	}

	name := h.Name
	if h.Filter != "" {
		name = highlightMatch(name, h.Filter, g.styles.Highlight)
	}

	line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", h.Depth), arrow, name)
	if h.ShowCounts {
		line += fmt.Sprintf(" (%d/%d)", h.Selected, h.Total)
	}

	fullySelected := h.Total > 0 && h.Selected == h.Total
	if style, ok := g.styles.Background(h.IsCursor, fullySelected); ok {
		return style.Render(padTo(line, width))
	}
	return line
}

// RenderParentHeader renders an inner hierarchy node with the number of
// selected files below it
func (g *GroupRenderer) RenderParentHeader(h ParentHeader) string {
	line := strings.Repeat("  ", h.Depth) + g.styles.Parent.Render(h.Name)
	if h.Selected > 0 {
		line += g.styles.Dim.Render(fmt.Sprintf(" [%d selected]", h.Selected))
	}
	return line
}

func padTo(line string, width int) string {
	if width <= 0 {
		return line
	}
	if n := lipgloss.Width(line); n < width {
		return line + strings.Repeat(" ", width-n)
	}
	return line
}

// highlightMatch highlights the first case-insensitive match of query
func highlightMatch(text, query string, style lipgloss.Style) string {
	index := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if index == -1 {
		return text
	}
	return text[:index] + style.Render(text[index:index+len(query)]) + text[index+len(query):]
}
