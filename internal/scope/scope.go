package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scope selects which installation is inspected: the current project or the user's home.
type Scope string

const (
	Project Scope = "project"
	Global  Scope = "global"
)

const (
	canonicalDirName   = ".agents"
	canonicalSkillsDir = "skills"
	projectLockName    = "skills-lock.json"
	globalLockName     = ".skill-lock.json"
)

// Parse converts a user-supplied scope name. "local" is accepted as an alias for project.
func Parse(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "project", "local", "":
		return Project, nil
	case "global":
		return Global, nil
	default:
		return "", fmt.Errorf("unknown scope '%s' — must be one of: project, global", s)
	}
}

func (s Scope) String() string {
	return string(s)
}

// Paths anchors scope-relative directories.
// Project-scope paths are relative to ProjectRoot, global-scope paths to Home.
type Paths struct {
	ProjectRoot string
	Home        string
}

// DefaultPaths returns Paths for the given project root and the current user's home directory.
func DefaultPaths(projectRoot string) (Paths, error) {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return Paths{}, fmt.Errorf("resolving project root: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolving home directory: %w", err)
	}
	return Paths{ProjectRoot: abs, Home: home}, nil
}

// Root returns the directory that scope-relative paths are joined to.
func (p Paths) Root(s Scope) string {
	if s == Global {
		return p.Home
	}
	return p.ProjectRoot
}

// Join resolves a scope-relative directory. Absolute dirs are returned cleaned.
func (p Paths) Join(s Scope, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(p.Root(s), dir)
}

// CanonicalDir returns the canonical skill store for the scope.
func (p Paths) CanonicalDir(s Scope) string {
	return filepath.Join(p.Root(s), canonicalDirName, canonicalSkillsDir)
}

// LockPath returns the lock file location for the scope.
func (p Paths) LockPath(s Scope) string {
	if s == Global {
		return filepath.Join(p.Home, canonicalDirName, globalLockName)
	}
	return filepath.Join(p.ProjectRoot, projectLockName)
}
