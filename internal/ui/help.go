package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Up             key.Binding
	Down           key.Binding
	ExtendUp       key.Binding
	ExtendDown     key.Binding
	First          key.Binding
	Last           key.Binding
	ExtendFirst    key.Binding
	ExtendLast     key.Binding
	Toggle         key.Binding
	Select         key.Binding
	SelectGroup    key.Binding
	DeselectGroup  key.Binding
	Clear          key.Binding
	NextSelected   key.Binding
	PrevSelected   key.Binding
	ToggleGroup    key.Binding
	CollapseParent key.Binding
	ExpandParent   key.Binding
	PrevGroup      key.Binding
	NextGroup      key.Binding
	Filter         key.Binding
	Sort           key.Binding
	Details        key.Binding
	Page           key.Binding
	Export         key.Binding
	Request        key.Binding
	Help           key.Binding
	PagerHelp      key.Binding
	Quit           key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		ExtendUp:       key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("⇧↑/K", "extend up")),
		ExtendDown:     key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("⇧↓/J", "extend down")),
		First:          key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home/g", "first in group")),
		Last:           key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end/G", "last in group")),
		ExtendFirst:    key.NewBinding(key.WithKeys("shift+home"), key.WithHelp("⇧home", "extend to first")),
		ExtendLast:     key.NewBinding(key.WithKeys("shift+end"), key.WithHelp("⇧end", "extend to last")),
		Toggle:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Select:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select only")),
		SelectGroup:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select group")),
		DeselectGroup:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "deselect group")),
		Clear:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		NextSelected:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next selected")),
		PrevSelected:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "previous selected")),
		ToggleGroup:    key.NewBinding(key.WithKeys("tab", "z"), key.WithHelp("tab/z", "expand/collapse")),
		CollapseParent: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse parent")),
		ExpandParent:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand parent")),
		PrevGroup:      key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous group")),
		NextGroup:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next group")),
		Filter:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Sort:           key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
		Details:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "details")),
		Page:           key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view manifest")),
		Export:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export csv")),
		Request:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "write request")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		PagerHelp:      key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "help in pager")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.SelectGroup, k.ToggleGroup, k.Filter, k.Export, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.ExtendUp, k.ExtendDown, k.First, k.Last, k.ExtendFirst, k.ExtendLast},
		{k.Toggle, k.Select, k.SelectGroup, k.DeselectGroup, k.Clear, k.NextSelected, k.PrevSelected},
		{k.ToggleGroup, k.CollapseParent, k.ExpandParent, k.PrevGroup, k.NextGroup},
		{k.Filter, k.Sort, k.Details, k.Page, k.Export, k.Request, k.Help, k.PagerHelp, k.Quit},
	}
}

// renderHelpContent renders the long help shown in the pager
func renderHelpContent(k keyMap) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	sections := []string{"Navigation", "Selection", "Groups", "Actions"}

	var help strings.Builder
	help.WriteString(titleStyle.Render("filegrip Help"))
	help.WriteString("\n")
	for i, bindings := range k.FullHelp() {
		help.WriteString(sectionStyle.Render(sections[i]))
		help.WriteString("\n")
		for _, b := range bindings {
			h := b.Help()
			help.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render(h.Key), descStyle.Render(h.Desc)))
		}
	}

	filterStyle := lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	help.WriteString("\n")
	help.WriteString(filterStyle.Render("  Filter examples: report, ext:pdf, top:docs"))
	help.WriteString("\n")
	help.WriteString(filterStyle.Render("  Plain movement selects one file; extending keeps the selection and toggles the file you land on."))
	help.WriteString("\n")

	return help.String()
}
