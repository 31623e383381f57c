// cmd/timebox/main.go
//
// This is the entry point for the timebox CLI.
// Running `timebox` with no arguments opens the board for the current
// directory's .timebox/ state; subcommands work on the same state without
// the TUI.

package main

import (
	"os"

	"github.com/kingrea/timebox/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
