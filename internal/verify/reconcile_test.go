package verify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/skillsync/internal/lock"
	"github.com/bianoble/skillsync/internal/scope"
	"github.com/bianoble/skillsync/internal/store"
)

// stubContent answers descriptor and fingerprint calls from maps keyed by
// skill folder base name.
type stubContent struct {
	invalid   map[string]bool
	hashes    map[string]string
	hashErrs  map[string]error
	hashCalls atomic.Int32
}

func (c *stubContent) parse(dir string) error {
	if c.invalid[filepath.Base(dir)] {
		return errors.New("missing frontmatter")
	}
	return nil
}

func (c *stubContent) fingerprint(_ context.Context, dir string) (string, error) {
	c.hashCalls.Add(1)
	name := filepath.Base(dir)
	if err := c.hashErrs[name]; err != nil {
		return "", err
	}
	return c.hashes[name], nil
}

func newReconciler(l Layout, c *stubContent) *Reconciler {
	return &Reconciler{Layout: l, Parse: c.parse, Fingerprint: c.fingerprint, Concurrency: 2}
}

func projectLock(entries map[string]string) *lock.Lock {
	l := lock.Empty(scope.Project)
	for name, hash := range entries {
		l.Entries[name] = lock.Entry{Name: name, Source: "owner/repo", ComputedHash: hash}
	}
	return l
}

func installedIn(l fakeLayout, names ...string) []store.InstalledSkill {
	var out []store.InstalledSkill
	for _, n := range names {
		out = append(out, store.InstalledSkill{Name: n, CanonicalPath: filepath.Join(l.canonical, n), InStore: true, Agents: []string{}})
	}
	return out
}

func TestReconcileEmpty(t *testing.T) {
	l := newLayout(t)
	sum := newReconciler(l, &stubContent{}).Reconcile(context.Background(), lock.Empty(scope.Project), nil, scope.Project, nil)

	assert.Empty(t, sum.Results)
	assert.NotNil(t, sum.Results)
	assert.Equal(t, Counts{}, sum.Counts())
	assert.False(t, sum.Failed())
}

func TestReconcileMissing(t *testing.T) {
	l := newLayout(t)
	sum := newReconciler(l, &stubContent{}).Reconcile(context.Background(), projectLock(map[string]string{"x": "h1"}), nil, scope.Project, nil)

	require.Len(t, sum.Results, 1)
	r := sum.Results[0]
	assert.Equal(t, StatusMissing, r.Status)
	assert.Equal(t, "h1", r.ExpectedHash)
	assert.Equal(t, filepath.Join(l.canonical, "x"), r.Path)
	assert.Equal(t, 1, sum.Counts().Missing)
	assert.True(t, sum.Failed())
}

func TestReconcileUntracked(t *testing.T) {
	l := newLayout(t)
	c := &stubContent{}
	sum := newReconciler(l, c).Reconcile(context.Background(), lock.Empty(scope.Project), installedIn(l, "x"), scope.Project, nil)

	require.Len(t, sum.Results, 1)
	assert.Equal(t, StatusUntracked, sum.Results[0].Status)
	assert.Empty(t, sum.Results[0].ExpectedHash)
	assert.Zero(t, c.hashCalls.Load(), "untracked skills are not hashed")
	assert.False(t, sum.Failed(), "untracked alone is informational")
}

func TestReconcileModified(t *testing.T) {
	l := newLayout(t)
	c := &stubContent{hashes: map[string]string{"x": "h2"}}
	sum := newReconciler(l, c).Reconcile(context.Background(), projectLock(map[string]string{"x": "h1"}), installedIn(l, "x"), scope.Project, nil)

	require.Len(t, sum.Results, 1)
	r := sum.Results[0]
	assert.Equal(t, StatusModified, r.Status)
	assert.Equal(t, "h1", r.ExpectedHash)
	assert.Equal(t, "h2", r.ActualHash)
}

func TestReconcileOK(t *testing.T) {
	l := newLayout(t)
	c := &stubContent{hashes: map[string]string{"x": "h1"}}
	sum := newReconciler(l, c).Reconcile(context.Background(), projectLock(map[string]string{"x": "h1"}), installedIn(l, "x"), scope.Project, nil)

	require.Len(t, sum.Results, 1)
	assert.Equal(t, StatusOK, sum.Results[0].Status)
	assert.Equal(t, "h1", sum.Results[0].ActualHash)
	assert.False(t, sum.Failed())
}

func TestReconcileTrackedSkillOnlyInAgentDirIsMissing(t *testing.T) {
	l := newLayout(t, "A")
	other := filepath.Join(filepath.Dir(l.canonical), "other", "x")
	mkdirAll(t, other)
	link := filepath.Join(l.bases["A"], "x")
	require.NoError(t, os.Symlink(other, link))

	c := &stubContent{hashes: map[string]string{"x": "h2"}}
	installed := []store.InstalledSkill{{Name: "x", CanonicalPath: filepath.Join(l.canonical, "x"), Agents: []string{"A"}}}
	sum := newReconciler(l, c).Reconcile(context.Background(), projectLock(map[string]string{"x": "h1"}), installed, scope.Project, []string{"A"})

	require.Len(t, sum.Results, 1)
	r := sum.Results[0]
	assert.Equal(t, StatusMissing, r.Status)
	assert.Equal(t, filepath.Join(l.canonical, "x"), r.Path)
	assert.Equal(t, []string{"A"}, r.Agents)
	assert.Equal(t, []BrokenSymlink{{Agent: "A", Link: link, Target: other}}, r.BrokenSymlinks)
	assert.Zero(t, c.hashCalls.Load(), "content outside the store is not hashed")
}

func TestReconcileMalformedLockEntryIsInvalid(t *testing.T) {
	l := newLayout(t, "A")
	c := &stubContent{hashes: map[string]string{"good": "h1", "bad": "h2"}}
	lk := projectLock(map[string]string{"good": "h1"})
	lk.Entries["bad"] = lock.Entry{Name: "bad", ComputedHash: "h2", Problem: "skill 'bad': 'source' is required"}
	lk.Entries["../up"] = lock.Entry{Name: "../up", Source: "a/b", Problem: "skill '../up': name must be a single path element"}

	sum := newReconciler(l, c).Reconcile(context.Background(), lk, installedIn(l, "good", "bad"), scope.Project, []string{"A"})

	byName := map[string]Result{}
	for _, r := range sum.Results {
		byName[r.Name] = r
	}
	require.Len(t, byName, 3)
	assert.Equal(t, StatusOK, byName["good"].Status)

	assert.Equal(t, StatusInvalid, byName["bad"].Status)
	assert.Contains(t, byName["bad"].Error, "'source' is required")
	assert.Equal(t, filepath.Join(l.canonical, "bad"), byName["bad"].Path)

	assert.Equal(t, StatusInvalid, byName["../up"].Status)
	assert.Empty(t, byName["../up"].Path)
	assert.NotNil(t, byName["../up"].BrokenSymlinks)

	assert.Equal(t, int32(1), c.hashCalls.Load(), "only the well-formed entry is hashed")
}

func TestReconcileInvalidDescriptor(t *testing.T) {
	l := newLayout(t)
	c := &stubContent{invalid: map[string]bool{"x": true}, hashes: map[string]string{"x": "h1"}}
	sum := newReconciler(l, c).Reconcile(context.Background(), projectLock(map[string]string{"x": "h1"}), installedIn(l, "x"), scope.Project, nil)

	r := sum.Results[0]
	assert.Equal(t, StatusInvalid, r.Status)
	assert.Contains(t, r.Error, "missing frontmatter")
	assert.Zero(t, c.hashCalls.Load(), "invalid skills are not hashed")
}

func TestReconcileHashFailureIsLocal(t *testing.T) {
	l := newLayout(t)
	c := &stubContent{
		hashes:   map[string]string{"a": "ha", "c": "hc"},
		hashErrs: map[string]error{"b": errors.New("permission denied")},
	}
	lk := projectLock(map[string]string{"a": "ha", "b": "hb", "c": "hc"})
	sum := newReconciler(l, c).Reconcile(context.Background(), lk, installedIn(l, "a", "b", "c"), scope.Project, nil)

	require.Len(t, sum.Results, 3)
	assert.Equal(t, StatusOK, sum.Results[0].Status)
	assert.Equal(t, StatusInvalid, sum.Results[1].Status)
	assert.Contains(t, sum.Results[1].Error, "permission denied")
	assert.Equal(t, StatusOK, sum.Results[2].Status)
}

func TestReconcileGlobalScopeSkipsHash(t *testing.T) {
	l := newLayout(t)
	c := &stubContent{hashes: map[string]string{"x": "local"}}
	lk := lock.Empty(scope.Global)
	lk.Entries["x"] = lock.Entry{Name: "x", Source: "owner/repo", RemoteHash: "tree-sha"}

	sum := newReconciler(l, c).Reconcile(context.Background(), lk, installedIn(l, "x"), scope.Global, nil)

	r := sum.Results[0]
	assert.Equal(t, StatusOK, r.Status)
	assert.Empty(t, r.ExpectedHash)
	assert.Empty(t, r.ActualHash)
	assert.Zero(t, c.hashCalls.Load())
}

func TestReconcileGlobalScopeStillParsesDescriptor(t *testing.T) {
	l := newLayout(t)
	c := &stubContent{invalid: map[string]bool{"x": true}}
	lk := lock.Empty(scope.Global)
	lk.Entries["x"] = lock.Entry{Name: "x", Source: "owner/repo"}

	sum := newReconciler(l, c).Reconcile(context.Background(), lk, installedIn(l, "x"), scope.Global, nil)
	assert.Equal(t, StatusInvalid, sum.Results[0].Status)
}

func TestReconcileBrokenLinkOnHealthySkill(t *testing.T) {
	l := newLayout(t, "A")
	canonical := filepath.Join(l.canonical, "x")
	mkdirAll(t, canonical)
	other := filepath.Join(filepath.Dir(l.canonical), "other", "x")
	mkdirAll(t, other)
	link := filepath.Join(l.bases["A"], "x")
	require.NoError(t, os.Symlink(other, link))

	c := &stubContent{hashes: map[string]string{"x": "h1"}}
	sum := newReconciler(l, c).Reconcile(context.Background(), projectLock(map[string]string{"x": "h1"}), installedIn(l, "x"), scope.Project, []string{"A"})

	r := sum.Results[0]
	assert.Equal(t, StatusOK, r.Status)
	assert.Equal(t, []BrokenSymlink{{Agent: "A", Link: link, Target: other}}, r.BrokenSymlinks)
	assert.Equal(t, 1, sum.Counts().BrokenSymlinks)
	assert.True(t, sum.Failed())
}

func TestReconcileAgentAtCanonicalDirContributesNothing(t *testing.T) {
	l := newLayout(t)
	l.bases["shared"] = l.canonical
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(l.canonical, "x")))

	c := &stubContent{hashes: map[string]string{"x": "h1"}}
	sum := newReconciler(l, c).Reconcile(context.Background(), projectLock(map[string]string{"x": "h1"}), installedIn(l, "x"), scope.Project, []string{"shared"})

	assert.Empty(t, sum.Results[0].BrokenSymlinks)
	assert.Zero(t, sum.Counts().BrokenSymlinks)
}

func TestReconcileUntrackedSkillLinksAreChecked(t *testing.T) {
	l := newLayout(t, "A")
	require.NoError(t, os.WriteFile(filepath.Join(l.bases["A"], "x"), nil, 0644))

	sum := newReconciler(l, &stubContent{}).Reconcile(context.Background(), lock.Empty(scope.Project), installedIn(l, "x"), scope.Project, []string{"A"})

	r := sum.Results[0]
	assert.Equal(t, StatusUntracked, r.Status)
	require.Len(t, r.UnexpectedEntries, 1)
	assert.Equal(t, 1, sum.Counts().UnexpectedEntries)
	assert.True(t, sum.Failed())
}

func TestReconcileOnePerNameSortedAndCounted(t *testing.T) {
	l := newLayout(t)
	c := &stubContent{
		invalid: map[string]bool{"delta": true},
		hashes:  map[string]string{"alpha": "a", "Beta": "changed", "delta": "d"},
	}
	lk := projectLock(map[string]string{"alpha": "a", "Beta": "b", "charlie": "c", "delta": "d"})
	installed := installedIn(l, "delta", "echo", "alpha", "Beta", "foxtrot")

	sum := newReconciler(l, c).Reconcile(context.Background(), lk, installed, scope.Project, nil)

	var names []string
	for _, r := range sum.Results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"alpha", "Beta", "charlie", "delta", "echo", "foxtrot"}, names)

	counts := sum.Counts()
	assert.Equal(t, Counts{OK: 1, Modified: 1, Missing: 1, Invalid: 1, Untracked: 2}, counts)
	assert.Equal(t, len(sum.Results), counts.OK+counts.Modified+counts.Missing+counts.Untracked+counts.Invalid)
}

func TestReconcileCaseTiesAreDeterministic(t *testing.T) {
	l := newLayout(t)
	installed := installedIn(l, "pdf", "PDF")

	for range 5 {
		sum := newReconciler(l, &stubContent{}).Reconcile(context.Background(), lock.Empty(scope.Project), installed, scope.Project, nil)
		require.Len(t, sum.Results, 2)
		first, second := sum.Results[0].Name, sum.Results[1].Name
		assert.NotEqual(t, first, second)
		assert.Equal(t, "pdf", first)
		assert.Equal(t, "PDF", second)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	l := newLayout(t, "A")
	mkdirAll(t, filepath.Join(l.canonical, "x"))
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(l.bases["A"], "x")))

	c := &stubContent{hashes: map[string]string{"x": "h2"}}
	lk := projectLock(map[string]string{"x": "h1", "y": "h3"})
	installed := installedIn(l, "x", "z")
	r := newReconciler(l, c)

	first, err := r.Reconcile(context.Background(), lk, installed, scope.Project, []string{"A"}).MarshalJSON()
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), lk, installed, scope.Project, []string{"A"}).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestReconcileDoesNotMutateInstalled(t *testing.T) {
	l := newLayout(t)
	installed := installedIn(l, "x", "y")
	installed[0].Agents = []string{"A"}

	sum := newReconciler(l, &stubContent{}).Reconcile(context.Background(), projectLock(map[string]string{"x": ""}), installed, scope.Project, nil)
	sum.Results[0].Agents[0] = "changed"

	assert.Len(t, installed, 2)
	assert.Equal(t, "A", installed[0].Agents[0])
}
