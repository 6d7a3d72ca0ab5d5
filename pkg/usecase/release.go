package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// Publisher uploads packaged artifacts to the release host
type Publisher struct {
	host interfaces.ReleaseHost
}

// NewPublisher creates a Publisher. host may be nil when the run can never publish.
func NewPublisher(host interfaces.ReleaseHost) *Publisher {
	return &Publisher{host: host}
}

// Publish uploads artifact under rc.VersionTag. Re-publishing an attached asset is a
// success; transport and auth failures are reported, never retried here.
func (p *Publisher) Publish(ctx context.Context, artifact *model.PackagedArtifact, rc model.RunContext) model.PublishResult {
	logger := ctxlog.From(ctx)

	if !MayPublish(rc) || !artifact.Target.Publishable() {
		return model.PublishResult{Status: model.PublishNotAttempted}
	}

	result := model.PublishResult{Tag: rc.VersionTag}
	if p.host == nil {
		result.Status = model.PublishFailure
		result.Error = "release host is not configured"
		logger.Warn("Cannot publish artifact", "file", artifact.FileName, "reason", result.Error)
		return result
	}

	err := p.host.Upload(ctx, rc.VersionTag, artifact)
	switch {
	case err == nil:
		result.Status = model.PublishPublished
		logger.Info("Published artifact", "tag", rc.VersionTag, "file", artifact.FileName)
	case goerr.HasTag(err, model.ErrTagAssetExists):
		result.Status = model.PublishAlreadyPresent
		logger.Info("Artifact already attached to release", "tag", rc.VersionTag, "file", artifact.FileName)
	default:
		result.Status = model.PublishFailure
		result.Error = err.Error()
		logger.Warn("Failed to publish artifact", "tag", rc.VersionTag, "file", artifact.FileName, "error", err)
	}

	return result
}
