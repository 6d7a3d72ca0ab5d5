package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/usecase"
)

// Trigger describes the event a CI run was started by
type Trigger struct {
	Event     string
	Ref       string
	Channel   string
	CrateName string
	Host      string
	CommitSHA string
}

// Flags returns CLI flags for trigger configuration
func (c *Trigger) Flags() []cli.Flag {
	return append(c.SettingsFlags(),
		&cli.StringFlag{
			Name:        "event",
			Usage:       "Trigger kind (push-branch, push-tag, pull-request); inferred from --ref when empty",
			Destination: &c.Event,
			Sources:     cli.EnvVars("CONVOY_EVENT"),
		},
		&cli.StringFlag{
			Name:        "ref",
			Usage:       "Git ref that triggered the run, e.g. refs/tags/v1.2.0",
			Destination: &c.Ref,
			Sources:     cli.EnvVars("CONVOY_REF", "GITHUB_REF"),
		},
		&cli.StringFlag{
			Name:        "commit",
			Usage:       "Commit SHA being built",
			Destination: &c.CommitSHA,
			Sources:     cli.EnvVars("CONVOY_COMMIT", "GITHUB_SHA"),
		},
	)
}

// SettingsFlags returns the flags shared by every run regardless of how it is triggered
func (c *Trigger) SettingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "channel",
			Usage:       "Toolchain channel (stable, nightly)",
			Value:       string(model.ChannelStable),
			Destination: &c.Channel,
			Sources:     cli.EnvVars("CONVOY_CHANNEL"),
		},
		&cli.StringFlag{
			Name:        "crate",
			Usage:       "Crate name used in archive names",
			Required:    true,
			Destination: &c.CrateName,
			Sources:     cli.EnvVars("CONVOY_CRATE"),
		},
		&cli.StringFlag{
			Name:        "host",
			Usage:       "Host class (linux, darwin); detected when empty",
			Destination: &c.Host,
			Sources:     cli.EnvVars("CONVOY_HOST"),
		},
	}
}

// RunContext builds the run context from the flags
func (c *Trigger) RunContext() (model.RunContext, error) {
	kind, _ := model.ParseRef(c.Ref)
	if c.Event != "" {
		k, err := model.ParseEventKind(c.Event)
		if err != nil {
			return model.RunContext{}, err
		}
		kind = k
	}

	channel, err := model.ParseChannel(c.Channel)
	if err != nil {
		return model.RunContext{}, err
	}

	host, err := c.HostClass()
	if err != nil {
		return model.RunContext{}, err
	}

	rc := model.NewRunContext(kind, c.Ref, channel, c.CrateName, host)
	rc.CommitSHA = c.CommitSHA
	if err := rc.Validate(); err != nil {
		return model.RunContext{}, goerr.Wrap(err, "invalid trigger")
	}
	return rc, nil
}

// HostClass returns the configured host class, or the current one
func (c *Trigger) HostClass() (model.HostClass, error) {
	if c.Host == "" {
		return model.CurrentHostClass()
	}
	return model.ParseHostClass(c.Host)
}

// RunSettings returns the run parameters used for webhook-triggered runs
func (c *Trigger) RunSettings() (usecase.RunSettings, error) {
	channel, err := model.ParseChannel(c.Channel)
	if err != nil {
		return usecase.RunSettings{}, err
	}
	host, err := c.HostClass()
	if err != nil {
		return usecase.RunSettings{}, err
	}
	return usecase.RunSettings{
		CrateName: c.CrateName,
		Channel:   channel,
		HostClass: host,
	}, nil
}
