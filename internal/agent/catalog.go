package agent

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bianoble/skillsync/internal/config"
	"github.com/bianoble/skillsync/internal/scope"
)

// Definition describes where an agent looks for skills.
// ProjectDir is relative to the project root and GlobalDir to the home
// directory unless absolute. Detect lists home-relative paths whose
// presence means the agent is installed; when empty, the parent of
// GlobalDir is used.
type Definition struct {
	Name        string
	DisplayName string
	ProjectDir  string
	GlobalDir   string
	Detect      []string
}

// Dir returns the unresolved skills directory for the scope.
func (d Definition) Dir(s scope.Scope) string {
	if s == scope.Global {
		return d.GlobalDir
	}
	return d.ProjectDir
}

func (d Definition) detectPaths() []string {
	if len(d.Detect) > 0 {
		return d.Detect
	}
	return []string{filepath.Dir(d.GlobalDir)}
}

// builtinAgents are the agents known without configuration. amp and codex
// read project skills straight from the canonical store.
var builtinAgents = []Definition{
	{Name: "amp", DisplayName: "Amp", ProjectDir: ".agents/skills", GlobalDir: ".config/agents/skills", Detect: []string{".config/amp"}},
	{Name: "claude-code", DisplayName: "Claude Code", ProjectDir: ".claude/skills", GlobalDir: ".claude/skills"},
	{Name: "cline", DisplayName: "Cline", ProjectDir: ".cline/skills", GlobalDir: ".cline/skills"},
	{Name: "codex", DisplayName: "Codex", ProjectDir: ".agents/skills", GlobalDir: ".codex/skills"},
	{Name: "cursor", DisplayName: "Cursor", ProjectDir: ".cursor/skills", GlobalDir: ".cursor/skills"},
	{Name: "gemini-cli", DisplayName: "Gemini CLI", ProjectDir: ".gemini/skills", GlobalDir: ".gemini/skills"},
	{Name: "github-copilot", DisplayName: "GitHub Copilot", ProjectDir: ".github/skills", GlobalDir: ".copilot/skills"},
	{Name: "goose", DisplayName: "Goose", ProjectDir: ".goose/skills", GlobalDir: ".config/goose/skills"},
	{Name: "opencode", DisplayName: "OpenCode", ProjectDir: ".opencode/skill", GlobalDir: ".config/opencode/skill"},
	{Name: "windsurf", DisplayName: "Windsurf", ProjectDir: ".windsurf/skills", GlobalDir: ".codeium/windsurf/skills"},
}

// Catalog resolves agent names to their skill directories.
type Catalog struct {
	definitions map[string]Definition
	builtin     map[string]bool
}

// NewCatalog creates a Catalog with built-in definitions and optional custom overrides.
func NewCatalog(custom []config.AgentDefinition) *Catalog {
	c := &Catalog{
		definitions: make(map[string]Definition, len(builtinAgents)+len(custom)),
		builtin:     make(map[string]bool, len(builtinAgents)),
	}
	for _, d := range builtinAgents {
		c.definitions[d.Name] = d
		c.builtin[d.Name] = true
	}
	for _, cd := range custom {
		c.definitions[cd.Name] = Definition{
			Name:        cd.Name,
			DisplayName: cd.DisplayName,
			ProjectDir:  cd.ProjectDir,
			GlobalDir:   cd.GlobalDir,
			Detect:      cd.Detect,
		}
	}
	return c
}

// FromDefinitions creates a Catalog holding exactly the given definitions.
func FromDefinitions(defs ...Definition) *Catalog {
	c := &Catalog{
		definitions: make(map[string]Definition, len(defs)),
		builtin:     map[string]bool{},
	}
	for _, d := range defs {
		c.definitions[d.Name] = d
	}
	return c
}

// Get returns the definition for an agent name.
func (c *Catalog) Get(name string) (Definition, error) {
	d, ok := c.definitions[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown agent '%s' — known agents: %s; define others under agents: in %s", name, strings.Join(c.Names(), ", "), config.FileName)
	}
	return d, nil
}

// BaseDir returns the absolute skills directory of an agent in a scope.
func (c *Catalog) BaseDir(name string, s scope.Scope, paths scope.Paths) (string, error) {
	d, err := c.Get(name)
	if err != nil {
		return "", err
	}
	return paths.Join(s, d.Dir(s)), nil
}

// Names returns all known agent names (built-in + custom), sorted.
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.definitions))
}

// IsCustom returns whether an agent name is a custom definition (not built-in).
func (c *Catalog) IsCustom(name string) bool {
	_, isDefined := c.definitions[name]
	return isDefined && !c.builtin[name]
}

// Resolve validates agent names and returns them deduplicated and sorted.
func (c *Catalog) Resolve(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		if _, err := c.Get(name); err != nil {
			return nil, err
		}
		seen[name] = true
		out = append(out, name)
	}
	slices.Sort(out)
	return out, nil
}

// Detect returns the sorted names of agents that appear to be installed
// for the current user.
func (c *Catalog) Detect(paths scope.Paths) []string {
	var found []string
	for _, name := range c.Names() {
		for _, p := range c.definitions[name].detectPaths() {
			if _, err := os.Stat(paths.Join(scope.Global, p)); err == nil {
				found = append(found, name)
				break
			}
		}
	}
	return found
}
