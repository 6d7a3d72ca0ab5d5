package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/domain/registry"
)

func cmdTargets() *cli.Command {
	var (
		host    string
		channel string
	)

	return &cli.Command{
		Name:  "targets",
		Usage: "List the target matrix",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "host",
				Usage:       "Only list legs scheduled on this host class",
				Destination: &host,
			},
			&cli.StringFlag{
				Name:        "channel",
				Usage:       "Channel used with --host to filter vendor legs",
				Value:       string(model.ChannelStable),
				Destination: &channel,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			targets := registry.All()
			if host != "" {
				h, err := model.ParseHostClass(host)
				if err != nil {
					return err
				}
				ch, err := model.ParseChannel(channel)
				if err != nil {
					return err
				}
				targets = registry.ForHost(h, ch)
			}

			printTargets(os.Stdout, targets)
			return nil
		},
	}
}
