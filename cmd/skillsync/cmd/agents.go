package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bianoble/skillsync/internal/config"
)

var (
	agentsGlobal bool
	agentsJSON   bool
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List known agents and their skills directories",
	Long: `Lists built-in agents and those defined in skillsync.yaml (marked *), with the
skills directory used in the selected scope and whether the agent was detected
on this machine. Detected agents are the default set checked by verify.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		agents := client.Agents()
		if agentsJSON {
			return writeJSON(out, agents)
		}

		renderAgents(out, agents, selectedScope(agentsGlobal))
		for _, layer := range client.ConfigLayers() {
			if layer.Loaded {
				detail(out, "config (%s): %s", layer.Level, layer.Path)
			}
		}
		detail(out, "custom agents are defined under agents: in %s", config.FileName)
		return nil
	},
}

func init() {
	agentsCmd.Flags().BoolVarP(&agentsGlobal, "global", "g", false, "show global skills directories")
	agentsCmd.Flags().BoolVar(&agentsJSON, "json", false, "print the agent list as JSON")
	rootCmd.AddCommand(agentsCmd)
}
