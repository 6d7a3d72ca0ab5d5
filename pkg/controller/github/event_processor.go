package github

import (
	"context"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// EventProcessor converts GitHub webhook payloads into WebhookEvents
type EventProcessor struct {
	webhookUC interfaces.WebhookUseCase
}

// NewEventProcessor creates a new GitHub event processor
func NewEventProcessor(webhookUC interfaces.WebhookUseCase) *EventProcessor {
	return &EventProcessor{
		webhookUC: webhookUC,
	}
}

// ProcessEvent processes a GitHub webhook event. payload is the value returned by
// github.ParseWebHook for eventType and body is the raw request body.
func (p *EventProcessor) ProcessEvent(ctx context.Context, eventType, deliveryID string, payload any, body []byte) error {
	event, err := ToWebhookEvent(eventType, deliveryID, payload)
	if err != nil {
		return err
	}
	event.RawPayload = body

	ctx = ctxlog.With(ctx, ctxlog.From(ctx).With("delivery_id", deliveryID))
	return p.webhookUC.ProcessEvent(ctx, event)
}

// ToWebhookEvent extracts the fields a run needs from a parsed GitHub payload.
// Payload types other than push and pull_request become EventTypeUnknown.
func ToWebhookEvent(eventType, deliveryID string, payload any) (*model.WebhookEvent, error) {
	event := &model.WebhookEvent{
		ID:         deliveryID,
		Type:       model.WebhookEventType(eventType),
		ReceivedAt: time.Now(),
	}

	// Use Get*() helper methods for concise and nil-safe field access
	switch e := payload.(type) {
	case *github.PushEvent:
		if e.GetRepo() == nil {
			return nil, goerr.New("missing repository information in push event", goerr.V("delivery_id", deliveryID))
		}
		event.Type = model.EventTypePush
		event.Owner = e.GetRepo().GetOwner().GetLogin()
		if event.Owner == "" {
			event.Owner = e.GetRepo().GetOwner().GetName()
		}
		event.Repo = e.GetRepo().GetName()
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		event.Ref = e.GetRef()
		event.CommitSHA = e.GetAfter()
		event.Deleted = e.GetDeleted()

	case *github.PullRequestEvent:
		if e.GetRepo() == nil || e.GetPullRequest() == nil {
			return nil, goerr.New("missing repository or pull request information", goerr.V("delivery_id", deliveryID))
		}
		event.Type = model.EventTypePullRequest
		event.Action = e.GetAction()
		event.Owner = e.GetRepo().GetOwner().GetLogin()
		event.Repo = e.GetRepo().GetName()
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		event.Ref = e.GetPullRequest().GetHead().GetRef()
		event.CommitSHA = e.GetPullRequest().GetHead().GetSHA()

	default:
		event.Type = model.EventTypeUnknown
	}

	return event, nil
}
