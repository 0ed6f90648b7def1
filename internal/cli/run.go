package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loomwork/loomwork/internal/config"
	"github.com/loomwork/loomwork/internal/engine"
	"github.com/loomwork/loomwork/internal/logx"
	"github.com/loomwork/loomwork/internal/scheduler"
)

var (
	runGenerate bool
	runCount    int
	runModel    string
	runVerbose  bool
)

func init() {
	runAgentsCmd.Flags().BoolVar(&runGenerate, "generate", false, "pre-generate missing agent prompts before launching")
	runAgentsCmd.Flags().IntVar(&runCount, "count", 0, "override the mission's concurrency (0 keeps the mission value)")
	runAgentsCmd.Flags().StringVar(&runModel, "model", "", "override the mission's model identifier")
	runAgentsCmd.Flags().BoolVar(&runVerbose, "verbose", false, "enable debug-level logging")
	runCmd.AddCommand(runAgentsCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent execution engine",
}

var runAgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Launch the scheduler and run every agent in the active team until stopped",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(missionPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: mission file not found: %s\n", missionPath)
			return exitCodeError{code: 1, err: err}
		}

		cfg, err := config.Load(missionPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return exitCodeError{code: 2, err: err}
		}
		if runCount > 0 {
			cfg.Concurrency = runCount
		}
		if runModel != "" {
			cfg.Model = runModel
		}
		if runVerbose {
			cfg.Debug = true
		}

		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "Error: %s\n", e)
			}
			return exitCodeError{code: 2, err: fmt.Errorf("%d validation error(s)", len(errs))}
		}

		log := logx.New(os.Stderr, cfg.Debug)

		eng, err := engine.New(cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			return exitCodeError{code: 2, err: err}
		}

		if runGenerate {
			created, gerr := eng.GenerateAgents()
			if gerr != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", gerr)
				return exitCodeError{code: 2, err: gerr}
			}
			for _, p := range created {
				fmt.Printf("generated prompt: %s\n", p)
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			log.Info("received %s, shutting down", sig)
			cancel()
		}()

		runErr := eng.Run(ctx, scheduler.DefaultShutdownTimeout)
		select {
		case <-ctx.Done():
			return exitCodeError{code: 130, err: runErr}
		default:
			if runErr != nil {
				return exitCodeError{code: 2, err: runErr}
			}
			return nil
		}
	},
}

// exitCodeError carries the process exit code named in spec.md §6
// ("Exit codes") from deep inside a cobra RunE back to main().
type exitCodeError struct {
	code int
	err  error
}

func (e exitCodeError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e exitCodeError) Unwrap() error { return e.err }

// ExitCode extracts the process exit code from an error returned by
// Execute, defaulting to 1 for any other non-nil error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec exitCodeError
	if as, ok := err.(exitCodeError); ok {
		ec = as
		return ec.code
	}
	return 1
}
