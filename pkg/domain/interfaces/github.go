package interfaces

import (
	"context"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// SourceHost fetches source snapshots
type SourceHost interface {
	// DownloadZipball downloads the source code zipball for a specific commit
	DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error)
}

// ReleaseHost attaches artifacts to releases
type ReleaseHost interface {
	// Upload attaches the artifact to the release for tag, creating the release if needed.
	// A pre-existing asset with the same name is reported with model.ErrTagAssetExists.
	Upload(ctx context.Context, tag string, artifact *model.PackagedArtifact) error
}
