// Command smtcomb runs and inspects equality-sharing scenarios.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/vaucouleur/decision/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	if !reported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}

// reported tells whether a command already wrote err through its output
// formatter. Flag parsing errors and the format check never reach one.
func reported(err error) bool {
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	return exitErr.Err != nil || exitErr.Code == cli.ExitFailure
}
