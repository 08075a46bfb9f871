package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/cardledger/cmd/app/commands"
	"github.com/allisson/cardledger/internal/app"
	"github.com/allisson/cardledger/internal/config"
	cryptoService "github.com/allisson/cardledger/internal/crypto/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-codec-key",
			Usage: "Generate a CODEC_SECRET_KEY value, optionally wrapped by a KMS key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Value: "",
					Usage: "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateCodecKey(
					ctx,
					cryptoService.NewKMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("kms-key-uri"),
				)
			},
		},
	}
}
