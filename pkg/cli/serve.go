package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/convoy/pkg/cli/config"
	controller "github.com/m-mizutani/convoy/pkg/controller/http"
	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/usecase"
	"github.com/m-mizutani/convoy/pkg/utils/async"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		githubCfg  config.GitHub
		triggerCfg config.Trigger
		buildCfg   config.Build
		cacheCfg   config.Cache
		slackCfg   config.Slack
	)

	flags := append(serverCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, triggerCfg.SettingsFlags()...)
	flags = append(flags, buildCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server receiving GitHub webhooks",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if githubCfg.Secret().IsEmpty() {
				return goerr.New("github-webhook-secret is required", goerr.T(model.ErrTagInvalidInput))
			}

			settings, err := triggerCfg.RunSettings()
			if err != nil {
				return err
			}

			githubClient, err := githubCfg.NewClient(ctx)
			if err != nil {
				return err
			}

			store, err := cacheCfg.NewStore(ctx)
			if err != nil {
				return err
			}

			opts := buildCfg.OrchestratorOptions()
			if notifier := slackCfg.NewNotifier(); notifier != nil {
				opts = append(opts, usecase.WithNotifier(notifier))
			}

			orchestrator := usecase.NewOrchestrator(
				buildCfg.NewBuildRunner(),
				usecase.NewCacheManager(store),
				buildCfg.NewPackager(),
				usecase.NewPublisher(githubClient),
				opts...,
			)

			var runs async.Group
			webhookUC := usecase.NewWebhook(usecase.NewSource(githubClient), orchestrator, &runs, settings)

			logger.Info("Starting convoy server",
				slog.String("addr", serverCfg.Addr),
				slog.String("crate", settings.CrateName),
				slog.String("channel", string(settings.Channel)),
				slog.String("host", string(settings.HostClass)),
			)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.Secret()),
				controller.WithInflight(runs.Inflight),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Waiting for in-flight runs", slog.Int("inflight", runs.Inflight()))
			drainCtx, cancelDrain := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
			defer cancelDrain()
			if err := runs.Wait(drainCtx); err != nil {
				return goerr.Wrap(err, "in-flight runs did not finish", goerr.V("inflight", runs.Inflight()))
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
