// Command loomwork is the launcher binary for the agent execution
// engine (spec.md §6 "CLI surface"). Grounded on the teacher's
// cmd/line/main.go: a one-line delegation to the cli package, which
// owns argument parsing and exit-code mapping.
package main

import (
	"os"

	"github.com/loomwork/loomwork/internal/cli"
)

func main() {
	err := cli.Execute()
	os.Exit(cli.ExitCode(err))
}
