package model

import "time"

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypePush        WebhookEventType = "push"
	EventTypePullRequest WebhookEventType = "pull_request"
	EventTypeUnknown     WebhookEventType = "unknown"
)

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	Action     string           // Event action for pull_request (e.g., opened, synchronize)
	Owner      string           // Repository owner
	Repo       string           // Repository name
	Repository string           // Repository full name
	Sender     string           // Sender username
	Ref        string           // Fully qualified ref for push, head branch for pull_request
	CommitSHA  string           // Commit to build
	Deleted    bool             // Push deleted the ref
	ReceivedAt time.Time        // Time when the event was received
	RawPayload []byte           // Raw JSON payload
}

// IsSupportedEvent checks if the event should trigger a run
func (e *WebhookEvent) IsSupportedEvent() bool {
	switch e.Type {
	case EventTypePush:
		return !e.Deleted && e.CommitSHA != ""
	case EventTypePullRequest:
		switch e.Action {
		case "opened", "synchronize", "reopened":
			return e.CommitSHA != ""
		}
		return false
	default:
		return false
	}
}

// EventKind maps a supported webhook event onto the run trigger kind
func (e *WebhookEvent) EventKind() EventKind {
	if e.Type == EventTypePullRequest {
		return EventPullRequest
	}
	kind, _ := ParseRef(e.Ref)
	return kind
}
