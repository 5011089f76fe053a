package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/bianoble/skillsync/pkg/skillsync"
)

// newClient creates a library client from the global flags.
func newClient() (*skillsync.Client, error) {
	client, err := skillsync.New(skillsync.Options{
		ProjectRoot: projectDir,
		ConfigPath:  configPath,
	})
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return client, nil
}

// selectedScope returns the global scope when -g or SKILLSYNC_GLOBAL is set.
func selectedScope(global bool) skillsync.Scope {
	if global || viper.GetBool("global") {
		return skillsync.ScopeGlobal
	}
	return skillsync.ScopeProject
}

// info prints a line unless quiet mode is active.
func info(w io.Writer, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(w, format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(w io.Writer, format string, args ...any) {
	if verbose {
		fmt.Fprintf(w, "  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
