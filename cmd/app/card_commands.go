package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/cardledger/cmd/app/commands"
	"github.com/allisson/cardledger/internal/app"
	"github.com/allisson/cardledger/internal/config"
)

func getCardCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "issue-card",
			Usage: "Issue a card for a holder",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Holder name (letters and spaces)",
				},
				&cli.StringFlag{
					Name:     "tax-id",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Holder tax id (11 digits)",
				},
				&cli.StringFlag{
					Name:     "address",
					Aliases:  []string{"a"},
					Required: true,
					Usage:    "Holder address",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				cardUseCase, err := container.CardUseCase()
				if err != nil {
					return fmt.Errorf("failed to initialize card use case: %w", err)
				}

				return commands.RunIssueCard(
					ctx,
					cardUseCase,
					container.Logger(),
					commands.IssueCardArgs{
						HolderName: cmd.String("name"),
						TaxID:      cmd.String("tax-id"),
						Address:    cmd.String("address"),
					},
					cmd.String("format"),
					commands.DefaultIO().Writer,
				)
			},
		},
	}
}
