// Package cli implements the launcher's command surface (spec.md §6
// "CLI surface"): `run agents`, `generate agents`, `generate
// objective`. The core engine itself exposes no CLI; this package is
// the thin out-of-scope launcher the spec says to "specify for
// completeness" only. Grounded on the teacher's internal/cli package
// (github.com/spf13/cobra, a persistent --path/--mission flag, a
// version subcommand) generalised from the teacher's single `run
// <config-file>` invocation to the spec's three-command surface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var missionPath string

var rootCmd = &cobra.Command{
	Use:   "loomwork",
	Short: "Orchestrate a team of LLM-driven editing agents over a workspace",
	Long: `loomwork runs a pool of autonomous agents that cooperatively edit the
files of a project. Each agent is a specialised role driven by an LLM
assistant that proposes file edits; loomwork supervises when and how
often each agent runs, rate-limits provider requests, keeps a shared
project map up to date, and records every successful interaction for
later fine-tuning.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&missionPath, "mission", "mission.yaml", "path to the mission file")
	rootCmd.AddCommand(versionCmd, runCmd, generateCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loomwork %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
