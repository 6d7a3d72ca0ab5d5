package interfaces

import (
	"context"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a webhook event
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

// SourceUseCase fetches a commit's source tree onto local disk
type SourceUseCase interface {
	Fetch(ctx context.Context, ref *model.SourceRef) (*model.SourceTree, error)
}

// OrchestratorUseCase runs the whole release matrix for one trigger
type OrchestratorUseCase interface {
	Run(ctx context.Context, rc model.RunContext, sourceDir string) (*model.RunReport, error)
}
