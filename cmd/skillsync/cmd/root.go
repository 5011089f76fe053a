package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bianoble/skillsync/internal/logger"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configPath string
	projectDir string
	verbose    bool
	quiet      bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "skillsync",
	Short: "Verify installed agent skills against their lock files",
	Long: `skillsync checks that the skills recorded in skills-lock.json (project scope)
or ~/.agents/.skill-lock.json (global scope) are installed intact in the
canonical .agents/skills store, and that every agent's skills directory links
back to it. It reports problems and never repairs them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupOutput()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "skillsync %s\n", version)
		fmt.Fprintf(out, "  commit:  %s\n", commit)
		fmt.Fprintf(out, "  built:   %s\n", date)
		fmt.Fprintf(out, "  locks:   project v1, global v3\n")
	},
}

func init() {
	viper.SetEnvPrefix("SKILLSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to project config file (default <project>/skillsync.yaml)")
	flags.StringVar(&projectDir, "project", ".", "project root directory")
	flags.BoolVar(&verbose, "verbose", false, "detailed output")
	flags.BoolVar(&quiet, "quiet", false, "minimal output (errors only)")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("no_color", flags.Lookup("no-color"))

	rootCmd.AddCommand(versionCmd)
}

// setupOutput applies logging and color settings from flags and SKILLSYNC_* env.
func setupOutput() error {
	logger.SetLogOutput(os.Stderr)
	logger.SetLogFormat(viper.GetString("log_format"))
	level := viper.GetString("log_level")
	if verbose && !viper.IsSet("log_level") {
		level = "info"
	}
	if err := logger.SetLogLevel(level); err != nil {
		return fmt.Errorf("invalid log level '%s': %w", level, err)
	}

	if viper.GetBool("no_color") || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
