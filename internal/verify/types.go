// Package verify reconciles recorded lock state with the skills installed on
// disk and checks that agent links point at the canonical store.
package verify

import (
	"encoding/json"

	"github.com/bianoble/skillsync/internal/scope"
)

// Status is the classification of one skill.
type Status string

const (
	StatusOK        Status = "ok"
	StatusModified  Status = "modified"
	StatusMissing   Status = "missing"
	StatusUntracked Status = "untracked"
	StatusInvalid   Status = "invalid"
)

// Failing reports whether the status should fail a verification run.
// Untracked skills are informational.
func (s Status) Failing() bool {
	switch s {
	case StatusModified, StatusMissing, StatusInvalid:
		return true
	}
	return false
}

// BrokenSymlink is an agent link whose target is not the canonical skill folder.
type BrokenSymlink struct {
	Agent  string `json:"agent"`
	Link   string `json:"link"`
	Target string `json:"target"`
}

// UnexpectedEntry is an agent installation point that is neither a symlink
// nor a directory.
type UnexpectedEntry struct {
	Agent string `json:"agent"`
	Path  string `json:"path"`
	Mode  string `json:"mode"`
}

// Result is the verification outcome for one skill.
type Result struct {
	Name              string            `json:"name"`
	Path              string            `json:"path"`
	Status            Status            `json:"status"`
	ExpectedHash      string            `json:"expectedHash,omitempty"`
	ActualHash        string            `json:"actualHash,omitempty"`
	Agents            []string          `json:"agents"`
	BrokenSymlinks    []BrokenSymlink   `json:"brokenSymlinks"`
	UnexpectedEntries []UnexpectedEntry `json:"unexpectedEntries,omitempty"`
	Error             string            `json:"error,omitempty"`
}

// Healthy reports whether the skill has no failing status and no link faults.
func (r Result) Healthy() bool {
	return !r.Status.Failing() && len(r.BrokenSymlinks) == 0 && len(r.UnexpectedEntries) == 0
}

// Counts tallies a Summary. The status fields always sum to the number of
// results; BrokenSymlinks and UnexpectedEntries count findings across all results.
type Counts struct {
	OK                int `json:"ok"`
	Modified          int `json:"modified"`
	Missing           int `json:"missing"`
	Untracked         int `json:"untracked"`
	Invalid           int `json:"invalid"`
	BrokenSymlinks    int `json:"brokenSymlinks"`
	UnexpectedEntries int `json:"unexpectedEntries"`
}

// Summary is the outcome of one verification run.
type Summary struct {
	Scope   scope.Scope
	Results []Result
}

// NewSummary returns a Summary over results, which must already be ordered.
func NewSummary(s scope.Scope, results []Result) *Summary {
	if results == nil {
		results = []Result{}
	}
	return &Summary{Scope: s, Results: results}
}

// Counts derives the aggregate tallies from Results.
func (s *Summary) Counts() Counts {
	var c Counts
	for _, r := range s.Results {
		switch r.Status {
		case StatusOK:
			c.OK++
		case StatusModified:
			c.Modified++
		case StatusMissing:
			c.Missing++
		case StatusUntracked:
			c.Untracked++
		case StatusInvalid:
			c.Invalid++
		}
		c.BrokenSymlinks += len(r.BrokenSymlinks)
		c.UnexpectedEntries += len(r.UnexpectedEntries)
	}
	return c
}

// Failed reports whether any result is failing or has link faults.
func (s *Summary) Failed() bool {
	for _, r := range s.Results {
		if !r.Healthy() {
			return true
		}
	}
	return false
}

// Only returns a Summary restricted to the named skills, preserving order.
// An empty names list returns s unchanged.
func (s *Summary) Only(names []string) *Summary {
	if len(names) == 0 {
		return s
	}
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	var out []Result
	for _, r := range s.Results {
		if keep[r.Name] {
			out = append(out, r)
		}
	}
	return NewSummary(s.Scope, out)
}

type summaryJSON struct {
	Scope   scope.Scope `json:"scope"`
	Results []Result    `json:"results"`
	Counts  Counts      `json:"counts"`
}

// MarshalJSON includes the derived counts.
func (s *Summary) MarshalJSON() ([]byte, error) {
	results := s.Results
	if results == nil {
		results = []Result{}
	}
	return json.Marshal(summaryJSON{Scope: s.Scope, Results: results, Counts: s.Counts()})
}
