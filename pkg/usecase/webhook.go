package usecase

import (
	"context"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/utils/errutil"
)

// Dispatcher runs handlers in the background
type Dispatcher interface {
	Dispatch(ctx context.Context, handler func(ctx context.Context) error)
}

// RunSettings are the parts of a RunContext not carried by the webhook
type RunSettings struct {
	CrateName string
	Channel   model.Channel
	HostClass model.HostClass
}

type webhookUseCase struct {
	source       interfaces.SourceUseCase
	orchestrator interfaces.OrchestratorUseCase
	dispatcher   Dispatcher
	settings     RunSettings
}

var _ interfaces.WebhookUseCase = (*webhookUseCase)(nil)

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(source interfaces.SourceUseCase, orchestrator interfaces.OrchestratorUseCase, dispatcher Dispatcher, settings RunSettings) *webhookUseCase {
	return &webhookUseCase{
		source:       source,
		orchestrator: orchestrator,
		dispatcher:   dispatcher,
		settings:     settings,
	}
}

// ProcessEvent turns a supported webhook event into a run and dispatches it.
// Unsupported events are logged and dropped.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing webhook event",
		"id", event.ID,
		"type", event.Type,
		"action", event.Action,
		"repository", event.Repository,
		"sender", event.Sender,
		"supported", event.IsSupportedEvent(),
	)

	if !event.IsSupportedEvent() {
		logger.Warn("Unsupported event received",
			"type", event.Type,
			"action", event.Action,
		)
		return nil
	}

	rc := model.NewRunContext(event.EventKind(), event.Ref, uc.settings.Channel, uc.settings.CrateName, uc.settings.HostClass)
	rc.CommitSHA = event.CommitSHA
	if err := rc.Validate(); err != nil {
		return goerr.Wrap(err, "cannot build run from event", goerr.V("delivery_id", event.ID))
	}

	ref := &model.SourceRef{
		Owner:     event.Owner,
		Repo:      event.Repo,
		CommitSHA: event.CommitSHA,
	}

	logger.Info("Dispatching run",
		"run_id", rc.ID,
		"event", rc.EventKind,
		"ref", rc.Ref,
		"commit_sha", rc.CommitSHA,
	)

	uc.dispatcher.Dispatch(ctx, func(ctx context.Context) error {
		return uc.run(ctx, rc, ref)
	})

	return nil
}

func (uc *webhookUseCase) run(ctx context.Context, rc model.RunContext, ref *model.SourceRef) error {
	tree, err := uc.source.Fetch(ctx, ref)
	if err != nil {
		errutil.Handle(ctx, "failed to fetch source", err)
		return nil
	}
	defer func() {
		if err := os.RemoveAll(tree.TempDir); err != nil {
			ctxlog.From(ctx).Warn("Failed to remove source tree", "dir", tree.TempDir, "error", err)
		}
	}()

	if _, err := uc.orchestrator.Run(ctx, rc, tree.Root); err != nil {
		errutil.Handle(ctx, "run aborted", err)
	}
	return nil
}
