package verify

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bianoble/skillsync/internal/agent"
	"github.com/bianoble/skillsync/internal/lock"
	"github.com/bianoble/skillsync/internal/logger"
	"github.com/bianoble/skillsync/internal/scope"
	"github.com/bianoble/skillsync/internal/skill"
	"github.com/bianoble/skillsync/internal/store"
)

// LockReader reads the lock of a scope.
type LockReader interface {
	Read(ctx context.Context, s scope.Scope) (*lock.Lock, error)
}

// SkillLister lists the skills installed in a scope.
type SkillLister interface {
	List(ctx context.Context, s scope.Scope, agents []string) ([]store.InstalledSkill, error)
}

// AgentResolver detects installed agents and validates agent names.
type AgentResolver interface {
	Detect() []string
	Resolve(names []string) ([]string, error)
}

// CollaboratorError is a run-level failure of one of the engine's inputs.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return e.Collaborator + ": " + e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Options selects what a verification run inspects.
type Options struct {
	Scope scope.Scope
	// Agents restricts link checks and discovery; empty means the detected agents.
	Agents []string
}

// Engine runs verification against lock, installation and agent collaborators.
type Engine struct {
	Locks      LockReader
	Lister     SkillLister
	Agents     AgentResolver
	Reconciler *Reconciler
}

// New wires an Engine to the on-disk lock files, skill store and agent
// directories described by layout.
func New(layout agent.Layout, excludes []string, concurrency int) *Engine {
	return &Engine{
		Locks:  lock.Reader{Paths: layout.Paths},
		Lister: &store.Lister{Catalog: layout.Catalog, Paths: layout.Paths},
		Agents: layout,
		Reconciler: &Reconciler{
			Layout: layout,
			Parse: func(dir string) error {
				_, err := skill.ParseDescriptor(dir)
				return err
			},
			Fingerprint: func(ctx context.Context, dir string) (string, error) {
				return skill.Fingerprint(ctx, dir, excludes)
			},
			Concurrency: concurrency,
		},
	}
}

// Verify reconciles the lock of opts.Scope with the installed skills. It
// never modifies the filesystem. Only collaborator failures are returned as
// errors; per-skill problems are part of the summary.
func (e *Engine) Verify(ctx context.Context, opts Options) (*Summary, error) {
	s := opts.Scope
	if s == "" {
		s = scope.Project
	}

	agents, err := e.agentsToCheck(opts.Agents)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: "agents", Err: err}
	}
	log := logger.G(ctx).WithField("scope", s).WithField("agents", agents)

	lk, err := e.Locks.Read(ctx, s)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: "lock", Err: errors.Wrapf(err, "reading %s lock", s)}
	}

	installed, err := e.Lister.List(ctx, s, agents)
	if err != nil {
		return nil, &CollaboratorError{Collaborator: "store", Err: errors.Wrapf(err, "listing %s skills", s)}
	}
	log.Debugf("reconciling %d lock entries with %d installed skills", len(lk.Entries), len(installed))

	return e.Reconciler.Reconcile(ctx, lk, installed, s, agents), nil
}

func (e *Engine) agentsToCheck(filter []string) ([]string, error) {
	if len(filter) == 0 {
		return e.Agents.Detect(), nil
	}
	return e.Agents.Resolve(filter)
}
