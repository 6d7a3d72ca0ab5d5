package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/convoy/pkg/cli/config"
	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/usecase"
)

func cmdRun() *cli.Command {
	var (
		triggerCfg config.Trigger
		buildCfg   config.Build
		cacheCfg   config.Cache
		githubCfg  config.GitHub
		slackCfg   config.Slack
		reportCfg  config.Report
		sourceDir  string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Project source directory",
			Value:       ".",
			Destination: &sourceDir,
			Sources:     cli.EnvVars("CONVOY_SOURCE"),
		},
	}
	flags = append(flags, triggerCfg.Flags()...)
	flags = append(flags, buildCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, reportCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Build, package and publish every matrix leg for one trigger",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			rc, err := triggerCfg.RunContext()
			if err != nil {
				return err
			}

			store, err := cacheCfg.NewStore(ctx)
			if err != nil {
				return err
			}

			var host interfaces.ReleaseHost
			if usecase.MayPublish(rc) {
				if !githubCfg.Configured() {
					logger.Warn("Run may publish but no GitHub credentials are configured; uploads will fail")
				} else {
					client, err := githubCfg.NewClient(ctx)
					if err != nil {
						return err
					}
					host = client
				}
			}

			opts := buildCfg.OrchestratorOptions()
			if notifier := slackCfg.NewNotifier(); notifier != nil {
				opts = append(opts, usecase.WithNotifier(notifier))
			}

			orchestrator := usecase.NewOrchestrator(
				buildCfg.NewBuildRunner(),
				usecase.NewCacheManager(store),
				buildCfg.NewPackager(),
				usecase.NewPublisher(host),
				opts...,
			)

			report, err := orchestrator.Run(ctx, rc, sourceDir)
			if err != nil {
				return err
			}

			printReport(os.Stdout, report)

			if err := reportCfg.Write(report); err != nil {
				return err
			}

			if report.Status == model.RunFailure {
				return goerr.New("run failed",
					goerr.V("run_id", rc.ID),
					goerr.V("failed_legs", len(report.FailedLegs())),
				)
			}
			return nil
		},
	}
}
