package lock

import (
	"maps"
	"slices"

	"github.com/bianoble/skillsync/internal/scope"
)

const (
	// ProjectVersion is the only supported skills-lock.json version.
	ProjectVersion = 1
	// GlobalVersion is the current ~/.agents/.skill-lock.json version.
	GlobalVersion = 3
)

// ProjectLock is the on-disk shape of a project's skills-lock.json.
type ProjectLock struct {
	Version int                     `json:"version"`
	Skills  map[string]ProjectEntry `json:"skills"`
}

// ProjectEntry records one project-scope skill. ComputedHash is the
// fingerprint of the skill folder at install time.
type ProjectEntry struct {
	Source       string `json:"source" validate:"required"`
	SourceType   string `json:"sourceType"`
	ComputedHash string `json:"computedHash"`
}

// GlobalLock is the on-disk shape of ~/.agents/.skill-lock.json.
type GlobalLock struct {
	Version            int                    `json:"version"`
	Skills             map[string]GlobalEntry `json:"skills"`
	LastSelectedAgents []string               `json:"lastSelectedAgents,omitempty"`
}

// GlobalEntry records one global-scope skill. SkillFolderHash identifies the
// folder in the remote origin (e.g. a git tree SHA) and cannot be recomputed
// from local bytes.
type GlobalEntry struct {
	Source          string `json:"source" validate:"required"`
	SourceType      string `json:"sourceType"`
	SourceURL       string `json:"sourceUrl,omitempty"`
	SkillPath       string `json:"skillPath,omitempty"`
	SkillFolderHash string `json:"skillFolderHash,omitempty"`
	InstalledAt     string `json:"installedAt,omitempty"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
}

// Entry is a scope-independent view of one recorded skill.
type Entry struct {
	Name       string
	Source     string
	SourceType string

	// ComputedHash is set for project-scope entries only.
	ComputedHash string

	// RemoteHash is set for global-scope entries only.
	RemoteHash string

	// Problem describes why the recorded entry is malformed. Such entries
	// are reported on their own and never checked against the disk.
	Problem string
}

// Lock is the normalised lock state of one scope.
type Lock struct {
	Entries map[string]Entry
	Scope   scope.Scope
	Version int
}

// Names returns entry names in byte order.
func (l *Lock) Names() []string {
	return slices.Sorted(maps.Keys(l.Entries))
}

// Empty returns a lock with no entries for the scope.
func Empty(s scope.Scope) *Lock {
	version := ProjectVersion
	if s == scope.Global {
		version = GlobalVersion
	}
	return &Lock{Scope: s, Version: version, Entries: map[string]Entry{}}
}

func fromProject(pl *ProjectLock) *Lock {
	l := &Lock{Scope: scope.Project, Version: pl.Version, Entries: make(map[string]Entry, len(pl.Skills))}
	for name, e := range pl.Skills {
		l.Entries[name] = Entry{
			Name:         name,
			Source:       e.Source,
			SourceType:   e.SourceType,
			ComputedHash: e.ComputedHash,
			Problem:      problem(name, e),
		}
	}
	return l
}

func fromGlobal(gl *GlobalLock) *Lock {
	l := &Lock{Scope: scope.Global, Version: gl.Version, Entries: make(map[string]Entry, len(gl.Skills))}
	for name, e := range gl.Skills {
		l.Entries[name] = Entry{
			Name:       name,
			Source:     e.Source,
			SourceType: e.SourceType,
			RemoteHash: e.SkillFolderHash,
			Problem:    problem(name, e),
		}
	}
	return l
}
