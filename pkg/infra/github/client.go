package github

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/domain/types"
)

// Client talks to the GitHub REST API for one repository
type Client struct {
	githubClient *github.Client
	repo         model.Repository

	mu       sync.Mutex
	releases map[string]int64 // tag -> release ID
}

var (
	_ interfaces.ReleaseHost = (*Client)(nil)
	_ interfaces.SourceHost  = (*Client)(nil)
)

// Option is a functional option for Client
type Option func(*Client) error

// WithBaseURL points the client at a different API endpoint (GitHub Enterprise or tests).
// Uploads go to the same endpoint.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return goerr.Wrap(err, "invalid GitHub base URL", goerr.V("url", raw))
		}
		c.githubClient.BaseURL = u
		c.githubClient.UploadURL = u
		return nil
	}
}

// NewClient creates a client using an already authenticated HTTP client
func NewClient(httpClient *http.Client, repo model.Repository, opts ...Option) (*Client, error) {
	c := &Client{
		githubClient: github.NewClient(httpClient),
		repo:         repo,
		releases:     make(map[string]int64),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewTokenClient creates a client authenticated with a personal or workflow token
func NewTokenClient(ctx context.Context, token types.Secret, repo model.Repository, opts ...Option) (*Client, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Reveal()})
	return NewClient(oauth2.NewClient(ctx, src), repo, opts...)
}

// NewAppClient creates a client with GitHub App installation authentication
func NewAppClient(appID, installationID int64, privateKey []byte, repo model.Repository, opts ...Option) (*Client, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
		)
	}
	return NewClient(&http.Client{Transport: itr}, repo, opts...)
}

// DownloadZipball downloads the source code zipball for a specific commit
func (c *Client) DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	// Get download URL for zipball
	u, _, err := c.githubClient.Repositories.GetArchiveLink(ctx, owner, repo, github.Zipball, &github.RepositoryContentGetOptions{
		Ref: ref,
	}, 3) // Follow up to 3 redirects
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get zipball download URL",
			goerr.V("owner", owner), goerr.V("repo", repo), goerr.V("ref", ref))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create download request", goerr.V("url", u.String()))
	}

	// Use the same client transport for authentication
	httpClient := &http.Client{Transport: c.githubClient.Client().Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download zipball", goerr.V("url", u.String()))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code", goerr.V("status", resp.StatusCode), goerr.V("url", u.String()))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body")
	}

	return data, nil
}

// Upload attaches the artifact to the release for tag
func (c *Client) Upload(ctx context.Context, tag string, artifact *model.PackagedArtifact) error {
	releaseID, err := c.releaseID(ctx, tag)
	if err != nil {
		return err
	}

	exists, err := c.hasAsset(ctx, releaseID, artifact.FileName)
	if err != nil {
		return err
	}
	if exists {
		return goerr.New("release asset already exists",
			goerr.V("tag", tag), goerr.V("asset", artifact.FileName), goerr.T(model.ErrTagAssetExists))
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		return goerr.Wrap(err, "failed to open artifact", goerr.V("path", artifact.Path))
	}
	defer f.Close()

	_, _, err = c.githubClient.Repositories.UploadReleaseAsset(ctx, c.repo.Owner, c.repo.Name, releaseID,
		&github.UploadOptions{Name: artifact.FileName}, f)
	if err != nil {
		if isAlreadyExists(err) {
			return goerr.Wrap(err, "release asset already exists",
				goerr.V("tag", tag), goerr.V("asset", artifact.FileName), goerr.T(model.ErrTagAssetExists))
		}
		return goerr.Wrap(err, "failed to upload release asset", goerr.V("tag", tag), goerr.V("asset", artifact.FileName))
	}

	return nil
}

// releaseID resolves the release for tag, creating it when missing.
// Legs of one run upload concurrently, so lookups are serialized and memoized.
func (c *Client) releaseID(ctx context.Context, tag string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.releases[tag]; ok {
		return id, nil
	}

	release, err := c.findRelease(ctx, tag)
	if err != nil {
		return 0, err
	}

	if release == nil {
		release, _, err = c.githubClient.Repositories.CreateRelease(ctx, c.repo.Owner, c.repo.Name, &github.RepositoryRelease{
			TagName: github.Ptr(tag),
			Name:    github.Ptr(tag),
		})
		if err != nil {
			if !isAlreadyExists(err) {
				return 0, goerr.Wrap(err, "failed to create release", goerr.V("tag", tag), goerr.V("repo", c.repo.String()))
			}
			// Another runner created it first
			if release, err = c.findRelease(ctx, tag); err != nil {
				return 0, err
			}
			if release == nil {
				return 0, goerr.New("release vanished after creation conflict", goerr.V("tag", tag))
			}
		}
	}

	c.releases[tag] = release.GetID()
	return release.GetID(), nil
}

func (c *Client) findRelease(ctx context.Context, tag string) (*github.RepositoryRelease, error) {
	release, resp, err := c.githubClient.Repositories.GetReleaseByTag(ctx, c.repo.Owner, c.repo.Name, tag)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get release", goerr.V("tag", tag), goerr.V("repo", c.repo.String()))
	}
	return release, nil
}

func (c *Client) hasAsset(ctx context.Context, releaseID int64, name string) (bool, error) {
	opts := &github.ListOptions{PerPage: 100}
	for {
		assets, resp, err := c.githubClient.Repositories.ListReleaseAssets(ctx, c.repo.Owner, c.repo.Name, releaseID, opts)
		if err != nil {
			return false, goerr.Wrap(err, "failed to list release assets", goerr.V("release_id", releaseID))
		}
		for _, asset := range assets {
			if asset.GetName() == name {
				return true, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return false, nil
		}
		opts.Page = resp.NextPage
	}
}

func isAlreadyExists(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return false
	}
	if ghErr.Response.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	for _, e := range ghErr.Errors {
		if e.Code == "already_exists" {
			return true
		}
	}
	return false
}
