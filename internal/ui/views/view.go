package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"filegrip/internal/domain"
	"filegrip/internal/selection"
)

// GroupView is one leaf group as the list shows it
type GroupView struct {
	Group    domain.Group
	Expanded bool
	Total    int
	Names    []string // names of the first positions, may be shorter than Total
}

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width         int
	Height        int
	Groups        []GroupView
	Selection     selection.Selection
	Loading       string
	StatusMessage string
	StatusIsError bool
	FilterQuery   string
	SortLabel     string
	InputLine     string
	ShowCounts    bool
	PageLimit     int
	HelpView      string
	Popup         string
}

// Renderer handles all view rendering
type Renderer struct {
	styles      *Styles
	fileRender  *FileRenderer
	groupRender *GroupRenderer
	popupRender *PopupRenderer
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	styles := NewStyles()
	return &Renderer{
		styles:      styles,
		fileRender:  NewFileRenderer(styles),
		groupRender: NewGroupRenderer(styles),
		popupRender: NewPopupRenderer(styles),
	}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	if state.Popup != "" {
		return r.popupRender.RenderPopup(state.Popup, state.Width, state.Height)
	}

	content := &strings.Builder{}
	content.WriteString(r.renderTitle(state))
	content.WriteString("\n")

	if state.InputLine != "" {
		content.WriteString(state.InputLine)
		content.WriteString("\n\n")
	}

	switch {
	case state.Loading != "" && len(state.Groups) == 0:
		content.WriteString(r.styles.Dim.Render(state.Loading + "..."))
	case len(state.Groups) == 0:
		content.WriteString(r.styles.Dim.Render("No files found."))
	default:
		lines, cursor := r.renderList(state)
		content.WriteString(strings.Join(window(lines, cursor, r.listHeight(state)), "\n"))
	}

	content.WriteString("\n")
	content.WriteString(r.renderStatus(state))
	if state.HelpView != "" {
		content.WriteString("\n")
		content.WriteString(r.styles.Help.Render(state.HelpView))
	}

	return r.styles.Main.Render(content.String())
}

func (r *Renderer) renderTitle(state ViewState) string {
	logo := r.styles.Title.Render("filegrip")

	var right []string
	if state.Loading != "" {
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frame := int(time.Now().UnixMilli()/80) % len(spinner)
		right = append(right, r.styles.Dim.Render(fmt.Sprintf("%s %s", spinner[frame], state.Loading)))
	}
	if state.SortLabel != "" {
		right = append(right, r.styles.Dim.Render("sort: "+state.SortLabel))
	}
	if state.FilterQuery != "" {
		right = append(right, r.styles.Filter.Render(fmt.Sprintf("[Filter: %s]", state.FilterQuery)))
	}
	if len(right) == 0 {
		return logo
	}

	rightContent := strings.Join(right, "  ")
	termWidth := state.Width
	if termWidth <= 0 {
		termWidth = 80
	}
	padding := termWidth - 4 - lipgloss.Width(logo) - lipgloss.Width(rightContent)
	if padding < 2 {
		padding = 2
	}
	return logo + strings.Repeat(" ", padding) + rightContent
}

func (r *Renderer) renderStatus(state ViewState) string {
	sel := state.Selection
	summary := fmt.Sprintf("%d selected in %d groups", sel.Count(), sel.Len())

	if state.StatusMessage == "" {
		return r.styles.Status.Render(summary)
	}
	msgStyle := r.styles.StatusSuccess
	if state.StatusIsError {
		msgStyle = r.styles.StatusError
	}
	return r.styles.Status.Render(summary+"  ") + msgStyle.Render(state.StatusMessage)
}

func (r *Renderer) listHeight(state ViewState) int {
	// title, status and help lines plus the container padding
	used := 7
	if state.InputLine != "" {
		used += 2
	}
	if h := state.Height - used; h > 3 {
		return h
	}
	return 20
}

// renderList renders every group and returns the line index of the cursor
func (r *Renderer) renderList(state ViewState) ([]string, int) {
	sel := state.Selection
	focus, hasFocus := sel.Focus()
	width := state.Width - 4

	var lines []string
	cursor := 0
	var previous []string

	for _, gv := range state.Groups {
		g := gv.Group
		depth := max(len(g.Path)-1, 0)

		// inner hierarchy nodes that differ from the previous group's
		for d := 0; d < depth; d++ {
			if samePrefix(previous, g.Path, d) {
				continue
			}
			lines = append(lines, r.groupRender.RenderParentHeader(ParentHeader{
				Name:     g.Path[d],
				Depth:    d,
				Selected: sel.CountUnder(g.Path[:d+1]),
			}))
		}
		previous = g.Path

		name := g.Name
		if len(g.Path) > 0 {
			name = g.Path[len(g.Path)-1]
		}
		isCursorGroup := hasFocus && focus.Group.Key == g.Key
		headerIsCursor := isCursorGroup && !gv.Expanded
		if headerIsCursor {
			cursor = len(lines)
		}
		lines = append(lines, r.groupRender.RenderGroupHeader(GroupHeader{
			Name:       name,
			Depth:      depth,
			Expanded:   gv.Expanded,
			IsCursor:   headerIsCursor,
			Selected:   sel.CountFor(g.Key),
			Total:      gv.Total,
			ShowCounts: state.ShowCounts,
			Filter:     state.FilterQuery,
		}, width))

		if !gv.Expanded {
			continue
		}

		limit := gv.Total
		if state.PageLimit > 0 && limit > state.PageLimit {
			limit = state.PageLimit
		}
		for i := 0; i < limit; i++ {
			isCursor := isCursorGroup && focus.Index == i
			if isCursor {
				cursor = len(lines)
			}
			lines = append(lines, r.fileRender.RenderFile(r.fileRow(gv, i, depth, isCursor, sel, state.FilterQuery), width))
		}
		if hidden := gv.Total - limit; hidden > 0 {
			lines = append(lines, r.fileRender.RenderMore(depth, hidden))
			if isCursorGroup && focus.Index >= limit {
				cursor = len(lines)
				lines = append(lines, r.fileRender.RenderFile(r.fileRow(gv, focus.Index, depth, true, sel, state.FilterQuery), width))
			}
		}
	}
	return lines, cursor
}

func (r *Renderer) fileRow(gv GroupView, index, depth int, isCursor bool, sel selection.Selection, filter string) FileRow {
	row := FileRow{
		Index:    index,
		Depth:    depth,
		IsCursor: isCursor,
		Selected: sel.IsSelected(gv.Group.Key, index),
		Filter:   filter,
	}
	if index < len(gv.Names) {
		row.Name = gv.Names[index]
	}
	return row
}

func samePrefix(a, b []string, upTo int) bool {
	for i := 0; i <= upTo; i++ {
		if i >= len(a) || i >= len(b) || a[i] != b[i] {
			return false
		}
	}
	return true
}

// window returns at most height lines around the cursor line
func window(lines []string, cursor, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}
