// Package main is the entry point for the scout CLI.
package main

import (
	"os"

	"dealerscout/cmd/scout/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
