package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/skillsync/pkg/skillsync"
)

func sampleSummary() *skillsync.VerifySummary {
	return &skillsync.VerifySummary{
		Scope: skillsync.ScopeProject,
		Results: []skillsync.VerifyResult{
			{
				Name:           "edited",
				Path:           "/proj/.agents/skills/edited",
				Status:         skillsync.StatusModified,
				ExpectedHash:   "aaa",
				ActualHash:     "bbb",
				Agents:         []string{"claude-code"},
				BrokenSymlinks: []skillsync.BrokenSymlink{},
			},
			{
				Name:           "gone",
				Path:           "/proj/.agents/skills/gone",
				Status:         skillsync.StatusMissing,
				ExpectedHash:   "ccc",
				Agents:         []string{},
				BrokenSymlinks: []skillsync.BrokenSymlink{},
			},
			{
				Name:         "pdf",
				Path:         "/proj/.agents/skills/pdf",
				Status:       skillsync.StatusOK,
				ExpectedHash: "ddd",
				ActualHash:   "ddd",
				Agents:       []string{"claude-code", "cursor"},
				BrokenSymlinks: []skillsync.BrokenSymlink{
					{Agent: "cursor", Link: "/proj/.cursor/skills/pdf", Target: "/elsewhere/pdf"},
				},
			},
			{
				Name:           "stray",
				Path:           "/proj/.agents/skills/stray",
				Status:         skillsync.StatusUntracked,
				Agents:         []string{},
				BrokenSymlinks: []skillsync.BrokenSymlink{},
				UnexpectedEntries: []skillsync.UnexpectedEntry{
					{Agent: "cursor", Path: "/proj/.cursor/skills/stray", Mode: "file"},
				},
			},
		},
	}
}

func TestRenderJSONGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, sampleSummary()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "verify_report", buf.Bytes())
}

func withoutColor(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func TestRenderTable(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	renderTable(&buf, sampleSummary())
	out := buf.String()

	assert.Contains(t, out, "project skills")
	assert.Contains(t, out, "~ edited")
	assert.Contains(t, out, "✗ gone")
	assert.Contains(t, out, "✓ pdf")
	assert.Contains(t, out, "? stray")
	assert.Contains(t, out, "broken link cursor: /proj/.cursor/skills/pdf -> /elsewhere/pdf")
	assert.Contains(t, out, "unexpected cursor: /proj/.cursor/skills/stray is a file")
	assert.Contains(t, out, "1 ok, 1 modified, 1 missing, 1 untracked, 0 invalid, 1 broken symlink(s), 1 unexpected")
	assert.NotContains(t, out, "expected:", "hashes are verbose-only")
}

func TestRenderTableQuietShowsOnlyProblems(t *testing.T) {
	withoutColor(t)
	old := quiet
	quiet = true
	defer func() { quiet = old }()

	sum := sampleSummary()
	sum.Results = append(sum.Results, skillsync.VerifyResult{Name: "fine", Status: skillsync.StatusOK})

	var buf bytes.Buffer
	renderTable(&buf, sum)
	out := buf.String()

	assert.NotContains(t, out, "fine")
	assert.NotContains(t, out, "project skills")
	assert.Contains(t, out, "edited")
	assert.Contains(t, out, "pdf", "healthy content with a broken link is still shown")
}

func TestRenderTableVerboseShowsHashes(t *testing.T) {
	withoutColor(t)
	old := verbose
	verbose = true
	defer func() { verbose = old }()

	var buf bytes.Buffer
	renderTable(&buf, sampleSummary())
	out := buf.String()

	assert.Contains(t, out, "expected: aaa")
	assert.Contains(t, out, "actual:   bbb")
	assert.Contains(t, out, "actual:   (none)")
}

func TestRenderTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, &skillsync.VerifySummary{Scope: skillsync.ScopeGlobal})
	assert.Equal(t, "No global skills recorded or installed.\n", buf.String())
}

func TestRenderAgents(t *testing.T) {
	agents := []skillsync.AgentInfo{
		{Name: "acme", ProjectDir: "/p/.acme", GlobalDir: "/h/.acme", Custom: true},
		{Name: "cursor", DisplayName: "Cursor", ProjectDir: "/p/.cursor/skills", GlobalDir: "/h/.cursor/skills", Detected: true},
	}

	var buf bytes.Buffer
	renderAgents(&buf, agents, skillsync.ScopeGlobal)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "AGENT"))
	assert.Contains(t, lines[1], "acme *")
	assert.Contains(t, lines[1], "/h/.acme")
	assert.Contains(t, lines[2], "yes")
	assert.Contains(t, lines[2], "/h/.cursor/skills")
}
