package catalog

import (
	"strings"
)

// Matches reports whether a file passes the filter query.
// A query of the form "name:value" matches one annotation; anything else is
// a case-insensitive substring match on the file name and path.
func Matches(f File, query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)

	if name, value, ok := strings.Cut(query, ":"); ok && name != "" {
		for k, v := range f.Annotations {
			if strings.ToLower(k) == name {
				return strings.Contains(strings.ToLower(v), value)
			}
		}
		return false
	}

	return strings.Contains(strings.ToLower(f.Name), query) ||
		strings.Contains(strings.ToLower(f.Path), query)
}
