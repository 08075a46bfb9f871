package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/cardledger/cmd/app/commands"
	"github.com/allisson/cardledger/internal/app"
	"github.com/allisson/cardledger/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server, the metrics server and the outbox worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "outbox-worker",
			Usage: "Deliver pending card events from the outbox",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "once",
					Value: false,
					Usage: "Process a single batch and exit",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunOutboxWorker(ctx, cmd.Bool("once"), commands.DefaultIO().Writer)
			},
		},
	}
}
