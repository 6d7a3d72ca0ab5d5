package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/types"
	"github.com/m-mizutani/convoy/pkg/infra/slack"
)

// Slack holds run notification configuration
type Slack struct {
	WebhookURL string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook for run summaries",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("CONVOY_SLACK_WEBHOOK_URL"),
		},
	}
}

// NewNotifier returns the Slack notifier, or nil when no webhook is configured
func (c *Slack) NewNotifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}
	return slack.NewNotifier(types.Secret(c.WebhookURL))
}
