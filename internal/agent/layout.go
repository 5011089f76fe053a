package agent

import "github.com/bianoble/skillsync/internal/scope"

// Layout binds a Catalog to concrete anchor directories.
type Layout struct {
	Catalog *Catalog
	Paths   scope.Paths
}

// BaseDir returns the absolute skills directory of an agent in a scope.
func (l Layout) BaseDir(name string, s scope.Scope) (string, error) {
	return l.Catalog.BaseDir(name, s, l.Paths)
}

// CanonicalDir returns the canonical store for a scope.
func (l Layout) CanonicalDir(s scope.Scope) string {
	return l.Paths.CanonicalDir(s)
}

// Detect returns the agents installed for the current user.
func (l Layout) Detect() []string {
	return l.Catalog.Detect(l.Paths)
}

// Resolve validates agent names and returns them deduplicated and sorted.
func (l Layout) Resolve(names []string) ([]string, error) {
	return l.Catalog.Resolve(names)
}
