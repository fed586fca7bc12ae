// Package classmap collapses configured detector labels into a single alert label.
package classmap

import "strings"

// DefaultAlias is the display label shared by every foreign object class.
const DefaultAlias = "Foreign Object"

// Mapper maps raw detector labels to display labels.
// It is immutable after construction and safe for concurrent use.
type Mapper struct {
	alias   string
	members map[string]struct{}
}

// New returns a Mapper that maps every label in classes (case-insensitive) to alias.
// An empty alias falls back to DefaultAlias.
func New(alias string, classes []string) *Mapper {
	if alias == "" {
		alias = DefaultAlias
	}
	members := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			members[c] = struct{}{}
		}
	}
	return &Mapper{alias: alias, members: members}
}

// Map returns the display label for a raw label. Unknown labels are returned unchanged.
func (m *Mapper) Map(raw string) string {
	if _, ok := m.members[strings.ToLower(raw)]; ok {
		return m.alias
	}
	return raw
}

// Alias returns the collapsed display label.
func (m *Mapper) Alias() string {
	return m.alias
}

// IsAlert reports whether a display label is the alias.
func (m *Mapper) IsAlert(display string) bool {
	return display == m.alias
}
