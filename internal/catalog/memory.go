package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
)

// Memory is an in-memory catalog over a list of files
type Memory struct {
	mu        sync.RWMutex
	files     []File
	hierarchy []string
	sortMode  SortMode
	filter    string

	// built lazily from the fields above, nil when stale
	groups  []domain.Group
	members map[domain.GroupKey][]File
}

// NewMemory creates an empty in-memory catalog
func NewMemory() *Memory {
	return &Memory{}
}

// Add appends files to the catalog
func (m *Memory) Add(files ...File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, files...)
	m.groups = nil
}

// Replace swaps the whole file list
func (m *Memory) Replace(files []File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append([]File(nil), files...)
	m.groups = nil
}

// SetHierarchy sets the annotation names that split files into groups
func (m *Memory) SetHierarchy(names []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hierarchy = append([]string(nil), names...)
	m.groups = nil
}

// SetSort sets the order of files inside each group
func (m *Memory) SetSort(mode SortMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortMode = mode
	m.groups = nil
}

// SetFilter restricts the catalog to files matching query
func (m *Memory) SetFilter(query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = query
	m.groups = nil
}

func (m *Memory) Close() error {
	return nil
}

// Groups returns the leaf groups, ordered by their hierarchy values
func (m *Memory) Groups(ctx context.Context) ([]domain.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildLocked()
	return append([]domain.Group(nil), m.groups...), nil
}

func (m *Memory) Count(ctx context.Context, g domain.Group) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildLocked()
	return len(m.members[g.Key]), nil
}

// Details returns the records at positions r.From..r.To of group g.
// Positions past the end of the group are not returned.
func (m *Memory) Details(ctx context.Context, g domain.Group, r numrange.Range) ([]domain.FileDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buildLocked()

	files, ok := m.members[g.Key]
	if !ok {
		return nil, fmt.Errorf("group %s not in catalog", g.Key)
	}
	if r.From >= len(files) {
		return nil, nil
	}
	to := min(r.To, len(files)-1)
	out := make([]domain.FileDetail, 0, to-r.From+1)
	for _, f := range files[r.From : to+1] {
		out = append(out, f.detail())
	}
	return out, nil
}

func (m *Memory) buildLocked() {
	if m.groups != nil {
		return
	}

	members := make(map[domain.GroupKey][]File)
	paths := make(map[domain.GroupKey][]string)
	for _, f := range m.files {
		if !Matches(f, m.filter) {
			continue
		}
		values := f.valuesFor(m.hierarchy)
		key := domain.KeyFor(values)
		members[key] = append(members[key], f)
		paths[key] = values
	}

	keys := make([]domain.GroupKey, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return pathLess(paths[keys[i]], paths[keys[j]])
	})

	groups := make([]domain.Group, 0, len(keys))
	for i, key := range keys {
		sortFiles(members[key], m.sortMode)
		groups = append(groups, domain.Group{
			Key:       key,
			Name:      groupName(paths[key]),
			Path:      paths[key],
			SortOrder: i,
		})
	}

	m.groups = groups
	m.members = members
}

// pathLess orders hierarchy values case-insensitively with NoValue last
func pathLess(a, b []string) bool {
	for i := range min(len(a), len(b)) {
		if a[i] == b[i] {
			continue
		}
		if a[i] == NoValue {
			return false
		}
		if b[i] == NoValue {
			return true
		}
		la, lb := strings.ToLower(a[i]), strings.ToLower(b[i])
		if la != lb {
			return la < lb
		}
		return a[i] < b[i]
	}
	return len(a) < len(b)
}

func sortFiles(files []File, mode SortMode) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch mode {
		case SortBySize:
			if a.Size != b.Size {
				return a.Size > b.Size
			}
		case SortByPath:
			if a.Path != b.Path {
				return a.Path < b.Path
			}
		}
		na, nb := lowerASCII(a.Name), lowerASCII(b.Name)
		if na != nb {
			return na < nb
		}
		return a.Path < b.Path
	})
}

// lowerASCII folds only A-Z, matching SQLite's lower() so both catalogs
// order names the same way
func lowerASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + 'a' - 'A'
		}
		return r
	}, s)
}
