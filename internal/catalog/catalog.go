package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
)

// NoValue labels the hierarchy node of files missing an annotation
const NoValue = "(none)"

// AllFiles labels the single group of a catalog without a hierarchy
const AllFiles = "all files"

// File is one catalog entry before it is placed in a group
type File struct {
	Name        string
	Path        string
	Size        int64
	Annotations map[string]string
}

// ID returns a stable identifier derived from the file path
func (f File) ID() string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+f.Path)).String()
}

func (f File) detail() domain.FileDetail {
	annotations := make(map[string]string, len(f.Annotations))
	for k, v := range f.Annotations {
		annotations[k] = v
	}
	return domain.FileDetail{
		ID:          f.ID(),
		Name:        f.Name,
		Path:        f.Path,
		Size:        f.Size,
		Annotations: annotations,
	}
}

// valuesFor returns the hierarchy values of f, one per annotation name
func (f File) valuesFor(hierarchy []string) []string {
	values := make([]string, len(hierarchy))
	for i, name := range hierarchy {
		value, ok := f.Annotations[name]
		if !ok || value == "" {
			value = NoValue
		}
		values[i] = value
	}
	return values
}

// Catalog supplies groups and per-group counts and records
type Catalog interface {
	Groups(ctx context.Context) ([]domain.Group, error)
	Count(ctx context.Context, g domain.Group) (int, error)
	Details(ctx context.Context, g domain.Group, r numrange.Range) ([]domain.FileDetail, error)
	SetHierarchy(names []string)
	SetSort(mode SortMode)
	SetFilter(query string)
	Close() error
}

// SortMode orders files inside a group
type SortMode int

const (
	SortByName SortMode = iota
	SortBySize
	SortByPath
)

func (m SortMode) String() string {
	switch m {
	case SortBySize:
		return "size"
	case SortByPath:
		return "path"
	default:
		return "name"
	}
}

// Next cycles through the sort modes
func (m SortMode) Next() SortMode {
	return (m + 1) % 3
}

// ParseSortMode converts a config value into a sort mode
func ParseSortMode(value string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "name":
		return SortByName, nil
	case "size":
		return SortBySize, nil
	case "path":
		return SortByPath, nil
	default:
		return SortByName, fmt.Errorf("unknown sort mode %q", value)
	}
}

// Open creates a catalog for the configured driver
func Open(driver, dsn string) (Catalog, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", driver)
	}
}

// Fill replaces the contents of c with files
func Fill(ctx context.Context, c Catalog, files []File) error {
	switch c := c.(type) {
	case *Memory:
		c.Replace(files)
		return nil
	case *SQLite:
		return c.Replace(ctx, files)
	default:
		return fmt.Errorf("catalog %T cannot be filled", c)
	}
}

// groupName is the label of a leaf group
func groupName(values []string) string {
	if len(values) == 0 {
		return AllFiles
	}
	return strings.Join(values, " / ")
}
