package skillsync

import (
	"github.com/bianoble/skillsync/internal/scope"
	"github.com/bianoble/skillsync/internal/verify"
)

// Type aliases re-export verification types as the public API.
// Users import "github.com/bianoble/skillsync/pkg/skillsync" and use
// skillsync.VerifySummary, skillsync.VerifyResult, etc.

type Scope = scope.Scope
type Status = verify.Status
type VerifyResult = verify.Result
type VerifySummary = verify.Summary
type VerifyCounts = verify.Counts
type BrokenSymlink = verify.BrokenSymlink
type UnexpectedEntry = verify.UnexpectedEntry
type CollaboratorError = verify.CollaboratorError

const (
	ScopeProject = scope.Project
	ScopeGlobal  = scope.Global

	StatusOK        = verify.StatusOK
	StatusModified  = verify.StatusModified
	StatusMissing   = verify.StatusMissing
	StatusUntracked = verify.StatusUntracked
	StatusInvalid   = verify.StatusInvalid
)

// ParseScope converts "project", "local" or "global" into a Scope.
func ParseScope(s string) (Scope, error) {
	return scope.Parse(s)
}

// AgentInfo describes one agent known to a Client.
type AgentInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	ProjectDir  string `json:"projectDir"`
	GlobalDir   string `json:"globalDir"`
	Custom      bool   `json:"custom"`
	Detected    bool   `json:"detected"`
}
