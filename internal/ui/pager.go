package ui

import (
	"bytes"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"filegrip/internal/pager"
)

// runPager hands the terminal to the pager until the user quits it
func (m *Model) runPager(r io.Reader) tea.Cmd {
	if m.program == nil {
		m.setStatus("Pager is not available")
		return nil
	}
	p := m.program
	return func() tea.Msg {
		return pagerMsg{err: withReleasedTerminal(p, func() error { return pager.Page(r) })}
	}
}

// pageManifest renders the CSV manifest of the selection into the pager
func (m *Model) pageManifest() tea.Cmd {
	sel := m.deps.Store.Current()
	if sel.IsEmpty() {
		m.setStatus("Nothing selected")
		return nil
	}
	if m.program == nil {
		m.setStatus("Pager is not available")
		return nil
	}
	p, exporter, ctx := m.program, m.exporter, m.ctx
	return func() tea.Msg {
		var buf bytes.Buffer
		if _, err := exporter.Export(ctx, sel, &buf); err != nil {
			return pagerMsg{err: fmt.Errorf("failed to build manifest: %w", err)}
		}
		return pagerMsg{err: withReleasedTerminal(p, func() error { return pager.Page(&buf) })}
	}
}

func withReleasedTerminal(p *tea.Program, run func() error) error {
	if err := p.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// give the pager a moment to reset the screen before Bubble Tea redraws
		time.Sleep(100 * time.Millisecond)
		_ = p.RestoreTerminal()
	}()
	return run()
}
