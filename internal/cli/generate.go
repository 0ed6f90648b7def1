package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loomwork/loomwork/internal/config"
	"github.com/loomwork/loomwork/internal/engine"
	"github.com/loomwork/loomwork/internal/logx"
)

var objectiveAgent string

func init() {
	generateObjectiveCmd.Flags().StringVar(&objectiveAgent, "agent", "", "name of the agent to generate an objective for")
	generateObjectiveCmd.MarkFlagRequired("agent")
	generateCmd.AddCommand(generateAgentsCmd, generateObjectiveCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Pre-generate agent prompts and objectives",
}

var generateAgentsCmd = &cobra.Command{
	Use:   "agents [MISSION_PATH]",
	Short: "Pre-generate prompt stubs for every edit agent missing one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := missionPath
		if len(args) == 1 {
			path = args[0]
		}

		_, eng, err := loadEngine(path)
		if err != nil {
			return err
		}

		created, err := eng.GenerateAgents()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return exitCodeError{code: 2, err: err}
		}
		if len(created) == 0 {
			fmt.Println("no new prompts needed")
		}
		for _, p := range created {
			fmt.Printf("generated prompt: %s\n", p)
		}
		return nil
	},
}

var generateObjectiveCmd = &cobra.Command{
	Use:   "objective",
	Short: "Produce a per-agent objective file",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, eng, err := loadEngine(missionPath)
		if err != nil {
			return err
		}

		path, err := eng.GenerateObjective(objectiveAgent)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return exitCodeError{code: 2, err: err}
		}
		fmt.Printf("generated objective: %s\n", path)
		return nil
	},
}

// loadEngine loads and validates the mission file at path and
// constructs the Engine, the common preamble every `generate`
// subcommand needs.
func loadEngine(path string) (*config.Config, *engine.Engine, error) {
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: mission file not found: %s\n", path)
		return nil, nil, exitCodeError{code: 1, err: err}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return nil, nil, exitCodeError{code: 2, err: err}
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "Error: %s\n", e)
		}
		return nil, nil, exitCodeError{code: 2, err: fmt.Errorf("%d validation error(s)", len(errs))}
	}

	eng, err := engine.New(cfg, logx.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return nil, nil, exitCodeError{code: 2, err: err}
	}
	return cfg, eng, nil
}
