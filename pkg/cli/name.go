package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/domain/registry"
	"github.com/m-mizutani/convoy/pkg/infra/archive"
)

func cmdName() *cli.Command {
	var crateName, version, triple string

	return &cli.Command{
		Name:  "name",
		Usage: "Print the release archive name for a crate, version and triple",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "crate", Required: true, Destination: &crateName, Sources: cli.EnvVars("CONVOY_CRATE")},
			&cli.StringFlag{Name: "version", Required: true, Destination: &version},
			&cli.StringFlag{Name: "triple", Required: true, Destination: &triple},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if crateName == "" || version == "" || triple == "" {
				return goerr.New("crate, version and triple must not be empty", goerr.T(model.ErrTagInvalidInput))
			}

			known := false
			for _, t := range registry.All() {
				if t.Triple == triple {
					known = true
					break
				}
			}
			if !known {
				ctxlog.From(ctx).Warn("Triple is not in the target matrix", "triple", triple)
			}

			fmt.Fprintln(os.Stdout, model.ArtifactFileName(crateName, version, triple, archive.NewTarGz().Extension()))
			return nil
		},
	}
}
