package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/bianoble/skillsync/pkg/skillsync"
)

var (
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
	noteColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
	headingColor = color.New(color.Bold)
)

func statusMark(s skillsync.Status) string {
	switch s {
	case skillsync.StatusOK:
		return okColor.Sprint("✓")
	case skillsync.StatusUntracked:
		return noteColor.Sprint("?")
	case skillsync.StatusModified:
		return warnColor.Sprint("~")
	default:
		return failColor.Sprint("✗")
	}
}

func statusLabel(s skillsync.Status) string {
	label := fmt.Sprintf("%-10s", s)
	switch s {
	case skillsync.StatusOK:
		return okColor.Sprint(label)
	case skillsync.StatusUntracked:
		return noteColor.Sprint(label)
	case skillsync.StatusModified:
		return warnColor.Sprint(label)
	default:
		return failColor.Sprint(label)
	}
}

// renderTable writes a human-readable report.
func renderTable(w io.Writer, sum *skillsync.VerifySummary) {
	if len(sum.Results) == 0 {
		info(w, "No %s skills recorded or installed.", sum.Scope)
		return
	}

	if !quiet {
		headingColor.Fprintf(w, "%s skills\n", sum.Scope)
	}
	for _, r := range sum.Results {
		if quiet && r.Healthy() {
			continue
		}
		agents := "-"
		if len(r.Agents) > 0 {
			agents = strings.Join(r.Agents, ", ")
		}
		fmt.Fprintf(w, "  %s %-24s %s %s\n", statusMark(r.Status), r.Name, statusLabel(r.Status), dimColor.Sprint(agents))

		detail(w, "  path:     %s", r.Path)
		if r.ExpectedHash != "" || r.ActualHash != "" {
			detail(w, "  expected: %s", orNone(r.ExpectedHash))
			detail(w, "  actual:   %s", orNone(r.ActualHash))
		}
		if r.Error != "" {
			fmt.Fprintf(w, "      %s\n", failColor.Sprint(r.Error))
		}
		for _, b := range r.BrokenSymlinks {
			fmt.Fprintf(w, "      %s %s: %s -> %s\n", failColor.Sprint("broken link"), b.Agent, b.Link, b.Target)
		}
		for _, u := range r.UnexpectedEntries {
			fmt.Fprintf(w, "      %s %s: %s is a %s\n", failColor.Sprint("unexpected"), u.Agent, u.Path, u.Mode)
		}
	}

	info(w, "\n%s", countsLine(sum.Counts()))
}

func countsLine(c skillsync.VerifyCounts) string {
	parts := []string{
		fmt.Sprintf("%d ok", c.OK),
		fmt.Sprintf("%d modified", c.Modified),
		fmt.Sprintf("%d missing", c.Missing),
		fmt.Sprintf("%d untracked", c.Untracked),
		fmt.Sprintf("%d invalid", c.Invalid),
		fmt.Sprintf("%d broken symlink(s)", c.BrokenSymlinks),
	}
	if c.UnexpectedEntries > 0 {
		parts = append(parts, fmt.Sprintf("%d unexpected", c.UnexpectedEntries))
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// renderJSON writes the summary, including derived counts, as indented JSON.
func renderJSON(w io.Writer, sum *skillsync.VerifySummary) error {
	return writeJSON(w, sum)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// renderAgents writes the agent table for a scope.
func renderAgents(w io.Writer, agents []skillsync.AgentInfo, s skillsync.Scope) {
	fmt.Fprintf(w, "%-16s %-18s %-9s %s\n", "AGENT", "NAME", "DETECTED", "SKILLS DIR")
	for _, a := range agents {
		dir := a.ProjectDir
		if s == skillsync.ScopeGlobal {
			dir = a.GlobalDir
		}
		name := a.DisplayName
		if name == "" {
			name = a.Name
		}
		if a.Custom {
			name += " *"
		}
		detected := "no"
		if a.Detected {
			detected = "yes"
		}
		fmt.Fprintf(w, "%-16s %-18s %-9s %s\n", a.Name, name, detected, dir)
	}
}
