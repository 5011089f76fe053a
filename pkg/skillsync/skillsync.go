// Package skillsync provides the public Go library API for skillsync.
//
// skillsync verifies that the skills recorded in a project or global skill
// lock are installed intact, and that every agent's skills directory links
// back to the canonical store. It never modifies what it inspects.
//
// # Basic Usage
//
//	client, err := skillsync.New(skillsync.Options{
//	    ProjectRoot: "/path/to/project",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := client.Verify(ctx, skillsync.VerifyOptions{Scope: skillsync.ScopeProject})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if summary.Failed() {
//	    os.Exit(1)
//	}
package skillsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bianoble/skillsync/internal/agent"
	"github.com/bianoble/skillsync/internal/config"
	"github.com/bianoble/skillsync/internal/scope"
	"github.com/bianoble/skillsync/internal/verify"
)

// Options configures a skillsync client.
type Options struct {
	// ProjectRoot anchors project-scope paths. Defaults to the working directory.
	ProjectRoot string

	// Home anchors global-scope paths. Defaults to the user's home directory.
	Home string

	// ConfigPath is the project config file. Default: <ProjectRoot>/skillsync.yaml.
	ConfigPath string

	// NoInherit skips the system and user config layers.
	NoInherit bool

	// SystemConfigPath and UserConfigPath override the default layer locations.
	SystemConfigPath string
	UserConfigPath   string
}

// VerifyOptions selects what Verify inspects.
type VerifyOptions struct {
	Scope Scope
	// Agents restricts link checks; empty means the agents detected on this machine.
	Agents []string
	// Skills restricts the returned results; counts reflect the restricted set.
	Skills []string
}

// Verifier checks installed skills against the lock.
type Verifier interface {
	Verify(ctx context.Context, opts VerifyOptions) (*VerifySummary, error)
}

// Client is the main entry point for the skillsync library.
type Client struct {
	paths   scope.Paths
	config  *config.Config
	layers  []config.ConfigLayerInfo
	catalog *agent.Catalog
	engine  *verify.Engine
}

var _ Verifier = (*Client)(nil)

// New creates a Client, loading layered configuration.
func New(opts Options) (*Client, error) {
	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	home := opts.Home
	if home == "" {
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
	}
	paths := scope.Paths{ProjectRoot: abs, Home: home}

	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(abs, config.FileName)
	}

	res, err := config.LoadHierarchical(config.HierarchicalOptions{
		ProjectPath:      cfgPath,
		SystemConfigPath: opts.SystemConfigPath,
		UserConfigPath:   opts.UserConfigPath,
		NoInherit:        opts.NoInherit || config.EnvNoInherit(),
	})
	if err != nil {
		return nil, err
	}

	catalog := agent.NewCatalog(res.Config.Agents)
	layout := agent.Layout{Catalog: catalog, Paths: paths}

	return &Client{
		paths:   paths,
		config:  res.Config,
		layers:  res.Layers,
		catalog: catalog,
		engine:  verify.New(layout, res.Config.Exclude, res.Config.Concurrency),
	}, nil
}

// Verify reconciles the lock of a scope with the installed skills.
func (c *Client) Verify(ctx context.Context, opts VerifyOptions) (*VerifySummary, error) {
	sum, err := c.engine.Verify(ctx, verify.Options{Scope: opts.Scope, Agents: opts.Agents})
	if err != nil {
		return nil, err
	}
	return sum.Only(opts.Skills), nil
}

// Agents lists every known agent with its resolved directories.
func (c *Client) Agents() []AgentInfo {
	detected := c.catalog.Detect(c.paths)
	names := c.catalog.Names()
	out := make([]AgentInfo, 0, len(names))
	for _, name := range names {
		d, _ := c.catalog.Get(name)
		out = append(out, AgentInfo{
			Name:        d.Name,
			DisplayName: d.DisplayName,
			ProjectDir:  c.paths.Join(scope.Project, d.ProjectDir),
			GlobalDir:   c.paths.Join(scope.Global, d.GlobalDir),
			Custom:      c.catalog.IsCustom(name),
			Detected:    slices.Contains(detected, name),
		})
	}
	return out
}

// WatchPaths returns the lock file, the canonical store and the agent
// directories a verification of s depends on. Empty agents means the
// detected agents.
func (c *Client) WatchPaths(s Scope, agents []string) ([]string, error) {
	if len(agents) == 0 {
		agents = c.catalog.Detect(c.paths)
	}
	resolved, err := c.catalog.Resolve(agents)
	if err != nil {
		return nil, err
	}

	out := []string{c.paths.LockPath(s), c.paths.CanonicalDir(s)}
	for _, name := range resolved {
		dir, err := c.catalog.BaseDir(name, s, c.paths)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, dir) {
			out = append(out, dir)
		}
	}
	return out, nil
}

// Paths returns the anchor directories of the client.
func (c *Client) Paths() scope.Paths {
	return c.paths
}

// ConfigLayers reports which config layers were discovered and loaded.
func (c *Client) ConfigLayers() []config.ConfigLayerInfo {
	return c.layers
}
