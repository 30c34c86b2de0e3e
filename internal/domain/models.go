package domain

import "strings"

// GroupKey is the opaque identity of a group. Two groups are the same group
// exactly when their keys are equal.
type GroupKey string

// Group is one independently ordered, independently queryable collection of files,
// e.g. a folder node in the annotation hierarchy or a whole flat result set
type Group struct {
	Key       GroupKey
	Name      string   // label shown in UI
	Path      []string // hierarchy values from the root down to this node
	SortOrder int      // position relative to other groups
}

// Less orders groups by SortOrder, breaking ties by key so the order is total
func (g Group) Less(other Group) bool {
	if g.SortOrder != other.SortOrder {
		return g.SortOrder < other.SortOrder
	}
	return g.Key < other.Key
}

// Under reports whether the group sits at or below the given hierarchy prefix
func (g Group) Under(prefix []string) bool {
	if len(prefix) > len(g.Path) {
		return false
	}
	for i, value := range prefix {
		if g.Path[i] != value {
			return false
		}
	}
	return true
}

// keyEscaper keeps a "/" inside a value from reading as a level separator
var keyEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// KeyFor builds a group key from hierarchy values
func KeyFor(path []string) GroupKey {
	if len(path) == 0 {
		return GroupKey("/")
	}
	escaped := make([]string, len(path))
	for i, value := range path {
		escaped[i] = keyEscaper.Replace(value)
	}
	return GroupKey("/" + strings.Join(escaped, "/"))
}

// FileDetail is the full record for one file position
type FileDetail struct {
	ID          string
	Name        string
	Path        string
	Size        int64
	Annotations map[string]string // annotation name -> formatted value
}
