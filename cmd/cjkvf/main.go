// Package main is the entry point for the cjkvf CLI.
package main

import (
	"os"

	"cjkvf/cmd/cjkvf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.ExitCode(err))
	}
}
