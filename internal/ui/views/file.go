package views

import (
	"fmt"
	"strings"
)

// FileRow describes one position inside an expanded group
type FileRow struct {
	Index    int
	Name     string // empty while names are loading
	Depth    int
	IsCursor bool
	Selected bool
	Filter   string
}

// FileRenderer handles rendering of file rows
type FileRenderer struct {
	styles *Styles
}

// NewFileRenderer creates a new file renderer
func NewFileRenderer(styles *Styles) *FileRenderer {
	return &FileRenderer{styles: styles}
}

// RenderFile renders a file row with its selection checkbox
func (r *FileRenderer) RenderFile(row FileRow, width int) string {
	box := "[ ]"
	if row.Selected {
		box = "[x]"
	}

	name := row.Name
	if name == "" {
		name = r.styles.Dim.Render(fmt.Sprintf("#%d ⋯", row.Index))
	} else if row.Filter != "" {
		name = highlightMatch(name, row.Filter, r.styles.Highlight)
	}

	line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", row.Depth+1), box, name)
	if style, ok := r.styles.Background(row.IsCursor, row.Selected); ok {
		return style.Render(padTo(line, width))
	}
	return line
}

// RenderMore renders the marker for positions beyond the listing limit
func (r *FileRenderer) RenderMore(depth, hidden int) string {
	return strings.Repeat("  ", depth+1) + r.styles.Scroll.Render(fmt.Sprintf("… %d more", hidden))
}
