package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"filegrip/internal/catalog"
	"filegrip/internal/config"
	"filegrip/internal/details"
	"filegrip/internal/domain"
	"filegrip/internal/eventbus"
	"filegrip/internal/groups"
	"filegrip/internal/manifest"
	"filegrip/internal/navigation"
	"filegrip/internal/numrange"
	"filegrip/internal/selection"
	"filegrip/internal/state"
	"filegrip/internal/ui/views"
)

// Deps are the services the browser drives
type Deps struct {
	Context   context.Context
	Bus       eventbus.EventBus
	Config    *config.Config
	Catalog   catalog.Catalog
	Registry  *groups.Registry
	Store     *state.Store
	Navigator *navigation.Navigator
	Fetcher   *details.Fetcher

	// Populate fills the catalog before the first group load. Optional.
	Populate func(ctx context.Context) error
}

// Model represents the UI state
type Model struct {
	deps     Deps
	ctx      context.Context
	keys     keyMap
	help     help.Model
	renderer *views.Renderer
	exporter *manifest.Exporter

	width  int
	height int

	// current hierarchy as last loaded from the catalog
	groups     []domain.Group
	counts     map[domain.GroupKey]int
	names      map[domain.GroupKey][]string
	generation int

	sortMode    catalog.SortMode
	filter      string
	filterInput textinput.Model
	filtering   bool

	loading       string
	statusMessage string
	statusIsError bool
	popup         string

	program *tea.Program
}

// NewModel creates a new UI model
func NewModel(deps Deps) *Model {
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}

	sortMode, err := catalog.ParseSortMode(deps.Config.Catalog.Sort)
	if err != nil {
		log.Printf("Ignoring sort setting: %v", err)
	}

	ti := textinput.New()
	ti.Prompt = "Filter: "
	ti.Placeholder = "name, path or annotation:value"
	ti.CharLimit = 200

	return &Model{
		deps:        deps,
		ctx:         ctx,
		keys:        newKeyMap(),
		help:        help.New(),
		renderer:    views.NewRenderer(),
		exporter:    manifest.NewExporter(deps.Fetcher),
		counts:      make(map[domain.GroupKey]int),
		names:       make(map[domain.GroupKey][]string),
		sortMode:    sortMode,
		filterInput: ti,
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// SortMode returns the sort mode currently applied to the catalog
func (m *Model) SortMode() catalog.SortMode {
	return m.sortMode
}

// Init populates the catalog and loads the first hierarchy
func (m *Model) Init() tea.Cmd {
	m.deps.Catalog.SetSort(m.sortMode)
	if m.deps.Populate == nil {
		m.loading = "Loading"
		return tea.Batch(m.loadGroups(), tick())
	}
	m.loading = "Scanning"
	populate, ctx := m.deps.Populate, m.ctx
	return tea.Batch(func() tea.Msg {
		return populatedMsg{err: populate(ctx)}
	}, tick())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.filterInput.Width = max(msg.Width-20, 10)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tickMsg:
		if m.loading != "" {
			return m, tick()
		}
		return m, nil

	case populatedMsg:
		if msg.err != nil {
			m.loading = ""
			m.setError("Scan failed", msg.err)
			return m, nil
		}
		m.loading = "Loading"
		return m, m.loadGroups()

	case groupsLoadedMsg:
		return m, m.applyGroups(msg)

	case namesLoadedMsg:
		if msg.generation != m.generation {
			return m, nil
		}
		if msg.err != nil {
			m.setError(fmt.Sprintf("Failed to load %s", msg.key), msg.err)
			return m, nil
		}
		m.names[msg.key] = msg.names
		return m, nil

	case navigatedMsg:
		if msg.err != nil {
			m.setError("Navigation failed", msg.err)
		}
		return m, m.ensureNamesForFocus()

	case detailsMsg:
		return m, m.showDetails(msg)

	case exportedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Failed to write %s", msg.path), msg.err)
			return m, nil
		}
		if msg.rows >= 0 {
			m.setStatus(fmt.Sprintf("Wrote %d rows to %s", msg.rows, msg.path))
		} else {
			m.setStatus(fmt.Sprintf("Wrote %s", msg.path))
		}
		return m, nil

	case pagerMsg:
		if msg.err != nil {
			m.setError("Pager failed", msg.err)
		}
		return m, nil

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleEvent(event eventbus.DomainEvent) {
	switch e := event.(type) {
	case eventbus.SelectionResetEvent:
		// the first load resets an empty selection, nothing to report
		if m.generation > 1 {
			m.setStatus("Selection cleared: " + e.Reason)
		}
	case eventbus.ScanCompletedEvent:
		m.setStatus(fmt.Sprintf("Found %d files", e.Files))
	case eventbus.ErrorEvent:
		m.setError(e.Message, e.Err)
	case eventbus.ConfigSavedEvent:
		m.setStatus("Config saved")
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.popup != "" {
		m.popup = ""
		return nil
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	m.statusMessage = ""
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return tea.Quit
	case key.Matches(msg, k.Up):
		return m.navigate(navigation.DirectionUp, false)
	case key.Matches(msg, k.Down):
		return m.navigate(navigation.DirectionDown, false)
	case key.Matches(msg, k.ExtendUp):
		return m.navigate(navigation.DirectionUp, true)
	case key.Matches(msg, k.ExtendDown):
		return m.navigate(navigation.DirectionDown, true)
	case key.Matches(msg, k.First):
		return m.jumpWithinGroup(false, false)
	case key.Matches(msg, k.Last):
		return m.jumpWithinGroup(true, false)
	case key.Matches(msg, k.ExtendFirst):
		return m.jumpWithinGroup(false, true)
	case key.Matches(msg, k.ExtendLast):
		return m.jumpWithinGroup(true, true)
	case key.Matches(msg, k.Toggle):
		m.clickFocus(true)
	case key.Matches(msg, k.Select):
		m.clickFocus(false)
	case key.Matches(msg, k.SelectGroup):
		m.selectFocusedGroup(true)
	case key.Matches(msg, k.DeselectGroup):
		m.selectFocusedGroup(false)
	case key.Matches(msg, k.Clear):
		m.clearSelection()
	case key.Matches(msg, k.NextSelected):
		return m.cycleSelected(1)
	case key.Matches(msg, k.PrevSelected):
		return m.cycleSelected(-1)
	case key.Matches(msg, k.ToggleGroup):
		return m.toggleFocusedGroup()
	case key.Matches(msg, k.CollapseParent):
		m.setParentOpen(false)
	case key.Matches(msg, k.ExpandParent):
		return m.setParentOpen(true)
	case key.Matches(msg, k.PrevGroup):
		return m.jumpGroup(true)
	case key.Matches(msg, k.NextGroup):
		return m.jumpGroup(false)
	case key.Matches(msg, k.Filter):
		m.filtering = true
		m.filterInput.SetValue(m.filter)
		m.filterInput.CursorEnd()
		m.filterInput.Focus()
	case key.Matches(msg, k.Sort):
		m.sortMode = m.sortMode.Next()
		m.deps.Catalog.SetSort(m.sortMode)
		m.loading = "Sorting"
		return tea.Batch(m.loadGroups(), tick())
	case key.Matches(msg, k.Details):
		return m.fetchDetails()
	case key.Matches(msg, k.Page):
		return m.pageManifest()
	case key.Matches(msg, k.Export):
		return m.exportCSV()
	case key.Matches(msg, k.Request):
		return m.writeRequest()
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.PagerHelp):
		return m.runPager(strings.NewReader(renderHelpContent(m.keys)))
	}
	return nil
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filterInput.Blur()
		query := strings.TrimSpace(m.filterInput.Value())
		if query == m.filter {
			return nil
		}
		m.filter = query
		m.deps.Catalog.SetFilter(query)
		m.loading = "Filtering"
		return tea.Batch(m.loadGroups(), tick())
	case tea.KeyEsc:
		m.filtering = false
		m.filterInput.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return cmd
}

func (m *Model) setStatus(message string) {
	m.statusMessage = message
	m.statusIsError = false
}

func (m *Model) setError(message string, err error) {
	log.Printf("%s: %v", message, err)
	m.statusMessage = fmt.Sprintf("%s: %v", message, err)
	m.statusIsError = true
}

// View renders the UI
func (m *Model) View() string {
	groupViews := make([]views.GroupView, len(m.groups))
	for i, g := range m.groups {
		groupViews[i] = views.GroupView{
			Group:    g,
			Expanded: m.deps.Registry.IsOpen(g.Key),
			Total:    m.counts[g.Key],
			Names:    m.names[g.Key],
		}
	}

	inputLine := ""
	if m.filtering {
		inputLine = m.filterInput.View()
	}

	return m.renderer.Render(views.ViewState{
		Width:         m.width,
		Height:        m.height,
		Groups:        groupViews,
		Selection:     m.deps.Store.Current(),
		Loading:       m.loading,
		StatusMessage: m.statusMessage,
		StatusIsError: m.statusIsError,
		FilterQuery:   m.filter,
		SortLabel:     m.sortMode.String(),
		InputLine:     inputLine,
		ShowCounts:    m.deps.Config.UI.ShowCounts,
		PageLimit:     m.deps.Config.UI.PageLimit,
		HelpView:      m.help.View(m.keys),
		Popup:         m.popup,
	})
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadGroups rebuilds the hierarchy from the catalog
func (m *Model) loadGroups() tea.Cmd {
	cat, ctx := m.deps.Catalog, m.ctx
	return func() tea.Msg {
		list, err := cat.Groups(ctx)
		if err != nil {
			return groupsLoadedMsg{err: err}
		}
		counts := make(map[domain.GroupKey]int, len(list))
		for _, g := range list {
			n, err := cat.Count(ctx, g)
			if err != nil {
				return groupsLoadedMsg{err: err}
			}
			counts[g.Key] = n
		}
		return groupsLoadedMsg{groups: list, counts: counts}
	}
}

func (m *Model) applyGroups(msg groupsLoadedMsg) tea.Cmd {
	m.loading = ""
	if msg.err != nil {
		m.setError("Failed to load groups", msg.err)
		return nil
	}

	// replacing the hierarchy resets the selection through the registry listeners
	m.deps.Registry.Replace(msg.groups)
	m.groups = m.deps.Registry.All()
	m.counts = msg.counts
	m.names = make(map[domain.GroupKey][]string)
	m.generation++

	if _, ok := m.deps.Store.Current().Focus(); !ok {
		m.focusFirst()
	}

	var cmds []tea.Cmd
	for _, g := range m.groups {
		if m.deps.Registry.IsOpen(g.Key) {
			cmds = append(cmds, m.loadNames(g))
		}
	}
	return tea.Batch(cmds...)
}

// loadNames fetches the names of the listed positions of g
func (m *Model) loadNames(g domain.Group) tea.Cmd {
	limit := m.counts[g.Key]
	if pageLimit := m.deps.Config.UI.PageLimit; pageLimit > 0 && limit > pageLimit {
		limit = pageLimit
	}
	if limit == 0 {
		return nil
	}
	if _, loaded := m.names[g.Key]; loaded {
		return nil
	}
	m.names[g.Key] = nil

	cat, ctx, generation := m.deps.Catalog, m.ctx, m.generation
	return func() tea.Msg {
		records, err := cat.Details(ctx, g, numrange.MustNew(0, limit-1))
		if err != nil {
			return namesLoadedMsg{generation: generation, key: g.Key, err: err}
		}
		names := make([]string, len(records))
		for i, r := range records {
			names[i] = r.Name
		}
		return namesLoadedMsg{generation: generation, key: g.Key, names: names}
	}
}

func (m *Model) ensureNamesForFocus() tea.Cmd {
	if g, _, ok := m.focus(); ok && m.deps.Registry.IsOpen(g.Key) {
		return m.loadNames(g)
	}
	return nil
}

// focus returns the focused group as currently registered and the index
func (m *Model) focus() (domain.Group, int, bool) {
	pos, ok := m.deps.Store.Current().Focus()
	if !ok {
		return domain.Group{}, 0, false
	}
	g, known := m.deps.Registry.Get(pos.Group.Key)
	if !known {
		return domain.Group{}, 0, false
	}
	return g, pos.Index, true
}

func (m *Model) apply(fn func(selection.Selection) selection.Selection) {
	m.deps.Store.Apply(fn)
}

// focusFirst puts the focus on the first position of the first open group
func (m *Model) focusFirst() {
	for _, g := range m.deps.Registry.Ordered() {
		if m.counts[g.Key] > 0 {
			m.apply(func(s selection.Selection) selection.Selection {
				return s.FocusByGroup(g, 0)
			})
			return
		}
	}
}

// navigate moves the focus with the arrow keys. When the focused group is
// collapsed the focus first jumps into the nearest open group.
func (m *Model) navigate(dir navigation.Direction, extend bool) tea.Cmd {
	g, _, ok := m.focus()
	if !ok {
		m.focusFirst()
		return m.ensureNamesForFocus()
	}
	if !m.deps.Registry.IsOpen(g.Key) {
		m.focusNearestOpen(g, dir)
		return m.ensureNamesForFocus()
	}

	nav, ctx := m.deps.Navigator, m.ctx
	return func() tea.Msg {
		sel, err := nav.SelectNearby(ctx, dir, extend)
		return navigatedMsg{selection: sel, err: err}
	}
}

func (m *Model) focusNearestOpen(from domain.Group, dir navigation.Direction) {
	start := -1
	for i, g := range m.groups {
		if g.Key == from.Key {
			start = i
			break
		}
	}
	if start < 0 {
		return
	}
	step := 1
	if dir == navigation.DirectionUp {
		step = -1
	}
	for i := start + step; i >= 0 && i < len(m.groups); i += step {
		g := m.groups[i]
		total := m.counts[g.Key]
		if !m.deps.Registry.IsOpen(g.Key) || total == 0 {
			continue
		}
		index := 0
		if dir == navigation.DirectionUp {
			index = total - 1
		}
		m.apply(func(s selection.Selection) selection.Selection {
			return s.FocusByGroup(g, index)
		})
		return
	}
}

func (m *Model) jumpWithinGroup(last, extend bool) tea.Cmd {
	g, _, ok := m.focus()
	if !ok || m.counts[g.Key] == 0 {
		return nil
	}
	index := 0
	if last {
		index = m.counts[g.Key] - 1
	}
	m.apply(func(s selection.Selection) selection.Selection {
		if extend {
			return s.ExtendTo(g, index)
		}
		return s.SelectIndex(g, index, false)
	})
	return m.ensureNamesForFocus()
}

// clickFocus acts like a click on the focused file
func (m *Model) clickFocus(extend bool) {
	g, index, ok := m.focus()
	if !ok || index >= m.counts[g.Key] {
		return
	}
	m.apply(func(s selection.Selection) selection.Selection {
		return s.SelectIndex(g, index, extend)
	})
}

func (m *Model) selectFocusedGroup(selected bool) {
	g, _, ok := m.focus()
	total := m.counts[g.Key]
	if !ok || total == 0 {
		return
	}
	all := numrange.MustNew(0, total-1)
	m.apply(func(s selection.Selection) selection.Selection {
		if selected {
			return s.Select(g, all, true)
		}
		return s.Deselect(g, all)
	})
}

func (m *Model) clearSelection() {
	m.apply(func(s selection.Selection) selection.Selection {
		cleared := selection.New()
		if pos, ok := s.Focus(); ok {
			cleared = cleared.FocusByGroup(pos.Group, pos.Index)
		}
		return cleared
	})
}

// cycleSelected moves the focus through the selected positions
func (m *Model) cycleSelected(step int) tea.Cmd {
	sel := m.deps.Store.Current()
	count := sel.Count()
	if count == 0 {
		return nil
	}
	next := 0
	if current := sel.FocusedSelectionIndex(); current >= 0 {
		next = ((current+step)%count + count) % count
	} else if step < 0 {
		next = count - 1
	}
	m.apply(func(s selection.Selection) selection.Selection {
		return s.FocusByIndex(next)
	})
	return m.ensureNamesForFocus()
}

func (m *Model) toggleFocusedGroup() tea.Cmd {
	g, _, ok := m.focus()
	if !ok {
		return nil
	}
	if err := m.deps.Registry.Toggle(g.Key); err != nil {
		m.setError("Failed to toggle group", err)
		return nil
	}
	return m.ensureNamesForFocus()
}

// setParentOpen expands or collapses every group under the focused group's parent
func (m *Model) setParentOpen(open bool) tea.Cmd {
	g, _, ok := m.focus()
	if !ok {
		return nil
	}
	if len(g.Path) > 1 {
		m.deps.Registry.SetOpenUnder(g.Path[:len(g.Path)-1], open)
	} else if open {
		_ = m.deps.Registry.Open(g.Key)
	} else {
		_ = m.deps.Registry.Close(g.Key)
	}
	if !open {
		return nil
	}
	var cmds []tea.Cmd
	for _, other := range m.groups {
		if m.deps.Registry.IsOpen(other.Key) {
			cmds = append(cmds, m.loadNames(other))
		}
	}
	return tea.Batch(cmds...)
}

// jumpGroup moves the focus to the first position of the neighbouring open group
func (m *Model) jumpGroup(previous bool) tea.Cmd {
	g, _, ok := m.focus()
	if !ok {
		return nil
	}
	target, found := m.deps.Registry.Neighbor(g.Key, previous)
	if !found {
		return nil
	}
	m.apply(func(s selection.Selection) selection.Selection {
		return s.FocusByGroup(target, 0)
	})
	return m.ensureNamesForFocus()
}

func (m *Model) fetchDetails() tea.Cmd {
	if m.deps.Store.Current().IsEmpty() {
		m.setStatus("Nothing selected")
		return nil
	}
	fetcher, store, ctx := m.deps.Fetcher, m.deps.Store, m.ctx
	m.loading = "Fetching details"
	return tea.Batch(func() tea.Msg {
		records, rev, err := fetcher.FetchCurrent(ctx, store)
		return detailsMsg{records: records, revision: rev, err: err}
	}, tick())
}

func (m *Model) showDetails(msg detailsMsg) tea.Cmd {
	m.loading = ""
	if errors.Is(msg.err, details.ErrSelectionChanged) {
		m.setStatus("Selection changed while loading, details discarded")
		return nil
	}
	if msg.err != nil {
		m.setError("Failed to load details", msg.err)
		return nil
	}

	if m.deps.Bus != nil {
		m.deps.Bus.Publish(eventbus.DetailsFetchedEvent{Revision: msg.revision, Records: len(msg.records)})
	}

	var total int64
	for _, r := range msg.records {
		total += r.Size
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d files, %s\n\n", len(msg.records), formatSize(total))
	for i, r := range msg.records {
		if i == 10 {
			fmt.Fprintf(&b, "… and %d more\n", len(msg.records)-10)
			break
		}
		fmt.Fprintf(&b, "%-40s %10s\n", r.Name, formatSize(r.Size))
	}
	b.WriteString("\npress any key")
	m.popup = b.String()
	return nil
}

func (m *Model) exportCSV() tea.Cmd {
	sel := m.deps.Store.Current()
	if sel.IsEmpty() {
		m.setStatus("Nothing selected")
		return nil
	}
	exporter, ctx, path := m.exporter, m.ctx, m.deps.Config.Export.CSVPath
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{path: path, err: err}
		}
		rows, err := exporter.Export(ctx, sel, f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
		return exportedMsg{path: path, rows: rows, err: err}
	}
}

func (m *Model) writeRequest() tea.Cmd {
	sel := m.deps.Store.Current()
	if sel.IsEmpty() {
		m.setStatus("Nothing selected")
		return nil
	}
	path := m.deps.Config.Export.RequestPath
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{path: path, err: err}
		}
		err = manifest.WriteRequest(f, manifest.NewRequest("export", sel))
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		return exportedMsg{path: path, rows: -1, err: err}
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
