package config

import (
	"context"
	"os"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/domain/types"
	githubinfra "github.com/m-mizutani/convoy/pkg/infra/github"
)

// GitHub holds GitHub configuration
type GitHub struct {
	Token          string
	AppID          string
	InstallationID string
	PrivateKey     string
	PrivateKeyFile string
	Repository     string
	BaseURL        string
	WebhookSecret  string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token used to upload release assets",
			Destination: &c.Token,
			Sources:     cli.EnvVars("CONVOY_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("CONVOY_GITHUB_APP_ID"),
		},
		&cli.StringFlag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("CONVOY_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("CONVOY_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "Path to the GitHub App private key",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("CONVOY_GITHUB_PRIVATE_KEY_FILE"),
		},
		&cli.StringFlag{
			Name:        "github-repository",
			Usage:       "Release repository as owner/name",
			Destination: &c.Repository,
			Sources:     cli.EnvVars("CONVOY_GITHUB_REPOSITORY", "GITHUB_REPOSITORY"),
		},
		&cli.StringFlag{
			Name:        "github-base-url",
			Usage:       "GitHub API base URL (GitHub Enterprise)",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("CONVOY_GITHUB_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("CONVOY_GITHUB_WEBHOOK_SECRET"),
		},
	}
}

// Secret returns the webhook secret
func (c *GitHub) Secret() types.Secret {
	return types.Secret(c.WebhookSecret)
}

// Configured reports whether any GitHub credential is set
func (c *GitHub) Configured() bool {
	return c.Token != "" || c.AppID != ""
}

// NewClient builds a GitHub client from the configured credentials.
// App installation credentials take precedence over a token.
func (c *GitHub) NewClient(ctx context.Context) (*githubinfra.Client, error) {
	if !c.Configured() {
		return nil, goerr.New("GitHub credentials are not configured", goerr.T(model.ErrTagInvalidInput))
	}

	repo, err := model.ParseRepository(c.Repository)
	if err != nil {
		return nil, err
	}

	var opts []githubinfra.Option
	if c.BaseURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(c.BaseURL))
	}

	if c.AppID == "" {
		return githubinfra.NewTokenClient(ctx, types.Secret(c.Token), repo, opts...)
	}

	appID, err := strconv.ParseInt(c.AppID, 10, 64)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid GitHub App ID", goerr.V("app_id", c.AppID), goerr.T(model.ErrTagInvalidInput))
	}
	installationID, err := strconv.ParseInt(c.InstallationID, 10, 64)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid GitHub installation ID",
			goerr.V("installation_id", c.InstallationID), goerr.T(model.ErrTagInvalidInput))
	}

	key := []byte(c.PrivateKey)
	if len(key) == 0 && c.PrivateKeyFile != "" {
		if key, err = os.ReadFile(c.PrivateKeyFile); err != nil {
			return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", c.PrivateKeyFile))
		}
	}
	if len(key) == 0 {
		return nil, goerr.New("GitHub App private key is required", goerr.T(model.ErrTagInvalidInput))
	}

	return githubinfra.NewAppClient(appID, installationID, key, repo, opts...)
}
