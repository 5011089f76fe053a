package verify

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bianoble/skillsync/internal/lock"
	"github.com/bianoble/skillsync/internal/logger"
	"github.com/bianoble/skillsync/internal/scope"
	"github.com/bianoble/skillsync/internal/store"
)

// DefaultConcurrency bounds per-skill checks when Reconciler.Concurrency is zero.
const DefaultConcurrency = 8

// DescriptorFunc validates the SKILL.md of a skill folder.
type DescriptorFunc func(dir string) error

// FingerprintFunc computes the content fingerprint of a skill folder.
type FingerprintFunc func(ctx context.Context, dir string) (string, error)

// Reconciler classifies skills by comparing lock entries with installed skills.
type Reconciler struct {
	Layout      Layout
	Parse       DescriptorFunc
	Fingerprint FingerprintFunc
	Concurrency int
	// Locale orders results; the zero value is the root locale.
	Locale language.Tag
}

type job struct {
	name      string
	entry     *lock.Entry
	installed *store.InstalledSkill
}

// Reconcile produces one result per distinct skill name across the lock and
// the installed set, ordered by name. Per-skill failures are recorded in the
// result and never abort the run.
func (r *Reconciler) Reconcile(ctx context.Context, lk *lock.Lock, installed []store.InstalledSkill, s scope.Scope, agents []string) *Summary {
	index := make(map[string]*store.InstalledSkill, len(installed))
	for i := range installed {
		index[installed[i].Name] = &installed[i]
	}

	var jobs []job
	if lk != nil {
		for _, name := range lk.Names() {
			entry := lk.Entries[name]
			jobs = append(jobs, job{name: name, entry: &entry, installed: index[name]})
			delete(index, name)
		}
	}

	remaining := make([]string, 0, len(index))
	for name := range index {
		remaining = append(remaining, name)
	}
	slices.Sort(remaining)
	for _, name := range remaining {
		jobs = append(jobs, job{name: name, installed: index[name]})
	}

	results := make([]Result, len(jobs))

	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = r.classify(gCtx, j, s, agents)
			return nil
		})
	}
	_ = g.Wait()

	col := collate.New(r.Locale)
	slices.SortStableFunc(results, func(a, b Result) int {
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})

	return NewSummary(s, results)
}

func (r *Reconciler) classify(ctx context.Context, j job, s scope.Scope, agents []string) Result {
	res := Result{Name: j.name, Agents: []string{}}
	if j.installed != nil {
		res.Agents = append(res.Agents, j.installed.Agents...)
	}

	// A recorded name that is not a single path element is never joined
	// onto the store.
	onDisk := lock.ValidName(j.name)
	if onDisk {
		res.Path = filepath.Join(r.Layout.CanonicalDir(s), j.name)
	}

	switch {
	case j.entry != nil && j.entry.Problem != "":
		res.Status = StatusInvalid
		res.Error = "invalid lock entry: " + j.entry.Problem
	case j.entry == nil:
		res.Status = StatusUntracked
	case j.installed == nil || !j.installed.InStore:
		res.Status = StatusMissing
		if s == scope.Project {
			res.ExpectedHash = j.entry.ComputedHash
		}
	default:
		r.classifyContent(ctx, &res, j.entry, s)
	}

	if onDisk {
		res.BrokenSymlinks, res.UnexpectedEntries = CheckSymlinkIntegrity(ctx, r.Layout, j.name, res.Path, agents, s)
	} else {
		res.BrokenSymlinks = []BrokenSymlink{}
	}

	logger.G(ctx).WithField("skill", j.name).WithField("status", res.Status).
		WithField("broken_links", len(res.BrokenSymlinks)).Debug("classified skill")
	return res
}

func (r *Reconciler) classifyContent(ctx context.Context, res *Result, entry *lock.Entry, s scope.Scope) {
	if err := r.Parse(res.Path); err != nil {
		res.Status = StatusInvalid
		res.Error = "invalid SKILL.md: " + err.Error()
		return
	}

	// Global entries record a remote folder identifier that local bytes
	// cannot reproduce; presence is enough.
	if s == scope.Global {
		res.Status = StatusOK
		return
	}

	res.ExpectedHash = entry.ComputedHash
	actual, err := r.Fingerprint(ctx, res.Path)
	if err != nil {
		res.Status = StatusInvalid
		res.Error = "computing hash: " + err.Error()
		return
	}
	res.ActualHash = actual

	if actual != entry.ComputedHash {
		res.Status = StatusModified
		return
	}
	res.Status = StatusOK
}
