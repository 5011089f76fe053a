// Package store discovers the skills installed in a scope's canonical store
// and agent directories.
package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/bianoble/skillsync/internal/agent"
	"github.com/bianoble/skillsync/internal/logger"
	"github.com/bianoble/skillsync/internal/pathutil"
	"github.com/bianoble/skillsync/internal/scope"
)

// InstalledSkill is a skill observed on disk.
type InstalledSkill struct {
	Name string
	// CanonicalPath is <canonical store>/<Name>, whether or not it exists.
	CanonicalPath string
	// InStore is set when CanonicalPath exists. Skills seen only in agent
	// directories have it unset.
	InStore bool
	// Agents that currently see the skill, sorted.
	Agents []string
}

// Lister scans installation directories.
type Lister struct {
	Catalog *agent.Catalog
	Paths   scope.Paths
}

// List returns the skills installed in the canonical store of s and in the
// base directories of the given agents, sorted by name. Missing directories
// are treated as empty.
func (l *Lister) List(ctx context.Context, s scope.Scope, agents []string) ([]InstalledSkill, error) {
	canonical := l.Paths.CanonicalDir(s)
	log := logger.G(ctx).WithField("scope", s)

	inCanonical, err := skillDirs(canonical)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*InstalledSkill, len(inCanonical))
	for _, name := range inCanonical {
		byName[name] = &InstalledSkill{Name: name, CanonicalPath: filepath.Join(canonical, name), InStore: true}
	}

	sorted := slices.Clone(agents)
	slices.Sort(sorted)
	for _, name := range slices.Compact(sorted) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base, err := l.Catalog.BaseDir(name, s, l.Paths)
		if err != nil {
			return nil, err
		}

		if pathutil.SamePath(base, canonical) {
			for _, sk := range byName {
				if sk.InStore {
					sk.Agents = append(sk.Agents, name)
				}
			}
			continue
		}

		found, err := skillDirs(base)
		if err != nil {
			return nil, err
		}
		log.WithField("agent", name).WithField("dir", base).Debugf("found %d skill(s)", len(found))

		for _, skillName := range found {
			sk, ok := byName[skillName]
			if !ok {
				sk = &InstalledSkill{Name: skillName, CanonicalPath: filepath.Join(canonical, skillName)}
				byName[skillName] = sk
			}
			sk.Agents = append(sk.Agents, name)
		}
	}

	out := make([]InstalledSkill, 0, len(byName))
	for _, name := range sortedNames(byName) {
		out = append(out, *byName[name])
	}
	return out, nil
}

// skillDirs returns the names of non-hidden directories, or links to
// directories, inside dir.
func skillDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "reading skills directory %s", dir)
	}

	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch {
		case e.IsDir():
			names = append(names, e.Name())
		case e.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err == nil && info.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	return names, nil
}

func sortedNames(m map[string]*InstalledSkill) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
