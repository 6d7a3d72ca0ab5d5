package github_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/gt"

	githubcontroller "github.com/m-mizutani/convoy/pkg/controller/github"
	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// MockWebhookUseCase is a mock implementation of WebhookUseCase
type MockWebhookUseCase struct {
	processEventFunc func(ctx context.Context, event *model.WebhookEvent) error
	events           []*model.WebhookEvent
}

func (m *MockWebhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	m.events = append(m.events, event)
	if m.processEventFunc != nil {
		return m.processEventFunc(ctx, event)
	}
	return nil
}

func testRepo() *github.PushEventRepository {
	return &github.PushEventRepository{
		Name:     github.Ptr("svd2rust"),
		FullName: github.Ptr("rust-embedded/svd2rust"),
		Owner:    &github.User{Login: github.Ptr("rust-embedded")},
	}
}

func TestEventProcessor_PushTag(t *testing.T) {
	mockUC := &MockWebhookUseCase{}
	processor := githubcontroller.NewEventProcessor(mockUC)

	payload := &github.PushEvent{
		Ref:    github.Ptr("refs/tags/v1.2.0"),
		After:  github.Ptr("4b2e63aa7ea0953797757ccefa215e150be6c13f"),
		Repo:   testRepo(),
		Sender: &github.User{Login: github.Ptr("japaric")},
	}

	err := processor.ProcessEvent(context.Background(), "push", "delivery-1", payload, []byte(`{}`))
	gt.NoError(t, err)
	gt.Number(t, len(mockUC.events)).Equal(1)

	event := mockUC.events[0]
	gt.Value(t, event.ID).Equal("delivery-1")
	gt.Value(t, event.Type).Equal(model.EventTypePush)
	gt.Value(t, event.Owner).Equal("rust-embedded")
	gt.Value(t, event.Repo).Equal("svd2rust")
	gt.Value(t, event.Repository).Equal("rust-embedded/svd2rust")
	gt.Value(t, event.Sender).Equal("japaric")
	gt.Value(t, event.Ref).Equal("refs/tags/v1.2.0")
	gt.Value(t, event.CommitSHA).Equal("4b2e63aa7ea0953797757ccefa215e150be6c13f")
	gt.Value(t, event.EventKind()).Equal(model.EventPushTag)
	gt.True(t, event.IsSupportedEvent())
	gt.Value(t, string(event.RawPayload)).Equal(`{}`)
}

func TestEventProcessor_PushDeleted(t *testing.T) {
	event, err := githubcontroller.ToWebhookEvent("push", "delivery-2", &github.PushEvent{
		Ref:     github.Ptr("refs/heads/old"),
		After:   github.Ptr("0000000000000000000000000000000000000000"),
		Deleted: github.Ptr(true),
		Repo:    testRepo(),
	})
	gt.NoError(t, err)
	gt.True(t, event.Deleted)
	gt.False(t, event.IsSupportedEvent())
}

func TestEventProcessor_PullRequest(t *testing.T) {
	event, err := githubcontroller.ToWebhookEvent("pull_request", "delivery-3", &github.PullRequestEvent{
		Action: github.Ptr("synchronize"),
		PullRequest: &github.PullRequest{
			Head: &github.PullRequestBranch{
				Ref: github.Ptr("feature/x"),
				SHA: github.Ptr("abc123"),
			},
		},
		Repo: &github.Repository{
			Name:     github.Ptr("svd2rust"),
			FullName: github.Ptr("rust-embedded/svd2rust"),
			Owner:    &github.User{Login: github.Ptr("rust-embedded")},
		},
	})
	gt.NoError(t, err)
	gt.Value(t, event.Type).Equal(model.EventTypePullRequest)
	gt.Value(t, event.Action).Equal("synchronize")
	gt.Value(t, event.Ref).Equal("feature/x")
	gt.Value(t, event.CommitSHA).Equal("abc123")
	gt.Value(t, event.EventKind()).Equal(model.EventPullRequest)
}

func TestEventProcessor_MissingRepository(t *testing.T) {
	mockUC := &MockWebhookUseCase{}
	processor := githubcontroller.NewEventProcessor(mockUC)

	err := processor.ProcessEvent(context.Background(), "push", "delivery-4", &github.PushEvent{Ref: github.Ptr("refs/heads/master")}, nil)
	gt.Error(t, err)
	gt.Number(t, len(mockUC.events)).Equal(0)
}

func TestEventProcessor_UnknownEvent(t *testing.T) {
	mockUC := &MockWebhookUseCase{}
	processor := githubcontroller.NewEventProcessor(mockUC)

	err := processor.ProcessEvent(context.Background(), "release", "delivery-5", &github.ReleaseEvent{Action: github.Ptr("released")}, nil)
	gt.NoError(t, err)
	gt.Value(t, mockUC.events[0].Type).Equal(model.EventTypeUnknown)
}

func TestEventProcessor_UseCaseError(t *testing.T) {
	mockUC := &MockWebhookUseCase{
		processEventFunc: func(ctx context.Context, event *model.WebhookEvent) error {
			return errors.New("invalid settings")
		},
	}
	processor := githubcontroller.NewEventProcessor(mockUC)

	err := processor.ProcessEvent(context.Background(), "push", "delivery-6", &github.PushEvent{
		Ref:   github.Ptr("refs/heads/master"),
		After: github.Ptr("abc123"),
		Repo:  testRepo(),
	}, nil)
	gt.Error(t, err)
}
