package main

import (
	"slices"

	"github.com/urfave/cli/v3"
)

// getCommands groups operational, key management and card commands.
func getCommands(version string) []*cli.Command {
	return slices.Concat(
		getSystemCommands(version),
		getKeyCommands(),
		getCardCommands(),
	)
}
