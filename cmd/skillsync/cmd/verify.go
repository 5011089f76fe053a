package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bianoble/skillsync/pkg/skillsync"
)

var (
	verifyGlobal bool
	verifyAgents []string
	verifyJSON   bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [skill-name...]",
	Short: "Verify installed skills against the lock file",
	Long: `Compares the lock file of the selected scope with the skills installed in the
canonical store, recomputing content hashes for project skills, and checks every
agent's link to each skill. Does NOT modify anything.

Exit 0 if every skill is ok or untracked and all agent links are intact;
exit non-zero if any skill is modified, missing or invalid, or any link is broken.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		sum, err := client.Verify(cmd.Context(), skillsync.VerifyOptions{
			Scope:  selectedScope(verifyGlobal),
			Agents: verifyAgents,
			Skills: args,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if verifyJSON {
			if err := renderJSON(out, sum); err != nil {
				return err
			}
		} else {
			renderTable(out, sum)
		}

		if sum.Failed() {
			return failureError(sum)
		}
		return nil
	},
}

func failureError(sum *skillsync.VerifySummary) error {
	c := sum.Counts()
	failing := c.Modified + c.Missing + c.Invalid
	return fmt.Errorf("verification failed: %d skill(s) need attention, %d broken symlink(s), %d unexpected entry(s)",
		failing, c.BrokenSymlinks, c.UnexpectedEntries)
}

func init() {
	verifyCmd.Flags().BoolVarP(&verifyGlobal, "global", "g", false, "verify the global (~/.agents) installation")
	verifyCmd.Flags().StringSliceVarP(&verifyAgents, "agent", "a", nil, "agent to check links for (repeatable; default: detected agents)")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(verifyCmd)
}
