package usecase_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/usecase"
)

// syncDispatcher runs handlers inline so tests can observe their effects
type syncDispatcher struct {
	dispatched int
}

func (d *syncDispatcher) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	d.dispatched++
	_ = handler(ctx)
}

type mockOrchestrator struct {
	runFunc func(ctx context.Context, rc model.RunContext, sourceDir string) (*model.RunReport, error)
	runs    []model.RunContext
	dirs    []string
}

func (m *mockOrchestrator) Run(ctx context.Context, rc model.RunContext, sourceDir string) (*model.RunReport, error) {
	m.runs = append(m.runs, rc)
	m.dirs = append(m.dirs, sourceDir)
	if m.runFunc != nil {
		return m.runFunc(ctx, rc, sourceDir)
	}
	return &model.RunReport{Run: rc, State: model.RunDone, Status: model.RunSuccess}, nil
}

var webhookSettings = usecase.RunSettings{
	CrateName: "svd2rust",
	Channel:   model.ChannelStable,
	HostClass: model.HostLinux,
}

func newWebhookSource(t *testing.T) *mockSourceHost {
	zipData := createTestZip(t, map[string]string{
		"rust-embedded-svd2rust-abc123/Cargo.toml": "[package]\n",
	})
	return &mockSourceHost{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return zipData, nil
		},
	}
}

func TestWebhookUseCase_ProcessEvent_TagPush(t *testing.T) {
	host := newWebhookSource(t)
	orch := &mockOrchestrator{}
	dispatcher := &syncDispatcher{}
	uc := usecase.NewWebhook(usecase.NewSource(host), orch, dispatcher, webhookSettings)

	var sourceExisted bool
	orch.runFunc = func(ctx context.Context, rc model.RunContext, sourceDir string) (*model.RunReport, error) {
		_, err := os.Stat(sourceDir + "/Cargo.toml")
		sourceExisted = err == nil
		return &model.RunReport{Run: rc}, nil
	}

	err := uc.ProcessEvent(context.Background(), &model.WebhookEvent{
		ID:         "delivery-1",
		Type:       model.EventTypePush,
		Owner:      "rust-embedded",
		Repo:       "svd2rust",
		Repository: "rust-embedded/svd2rust",
		Ref:        "refs/tags/v1.2.0",
		CommitSHA:  "abc123",
		ReceivedAt: time.Now(),
	})
	gt.NoError(t, err)
	gt.Number(t, dispatcher.dispatched).Equal(1)
	gt.Value(t, host.calls).Equal([]string{"rust-embedded/svd2rust@abc123"})
	gt.True(t, sourceExisted)

	gt.Number(t, len(orch.runs)).Equal(1)
	rc := orch.runs[0]
	gt.Value(t, rc.EventKind).Equal(model.EventPushTag)
	gt.Value(t, rc.VersionTag).Equal("v1.2.0")
	gt.Value(t, rc.CommitSHA).Equal("abc123")
	gt.Value(t, rc.CrateName).Equal("svd2rust")
	gt.True(t, usecase.MayPublish(rc))

	// source tree is removed after the run
	_, err = os.Stat(orch.dirs[0])
	gt.True(t, os.IsNotExist(err))
}

func TestWebhookUseCase_ProcessEvent_PullRequest(t *testing.T) {
	orch := &mockOrchestrator{}
	uc := usecase.NewWebhook(usecase.NewSource(newWebhookSource(t)), orch, &syncDispatcher{}, webhookSettings)

	err := uc.ProcessEvent(context.Background(), &model.WebhookEvent{
		ID:        "delivery-2",
		Type:      model.EventTypePullRequest,
		Action:    "synchronize",
		Owner:     "rust-embedded",
		Repo:      "svd2rust",
		Ref:       "feature/x",
		CommitSHA: "abc123",
	})
	gt.NoError(t, err)
	gt.Number(t, len(orch.runs)).Equal(1)
	gt.Value(t, orch.runs[0].EventKind).Equal(model.EventPullRequest)
	gt.False(t, usecase.MayPublish(orch.runs[0]))
}

func TestWebhookUseCase_ProcessEvent_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		event *model.WebhookEvent
	}{
		{
			name: "closed pull request",
			event: &model.WebhookEvent{
				ID:        "delivery-3",
				Type:      model.EventTypePullRequest,
				Action:    "closed",
				CommitSHA: "abc123",
			},
		},
		{
			name: "deleted branch",
			event: &model.WebhookEvent{
				ID:        "delivery-4",
				Type:      model.EventTypePush,
				Ref:       "refs/heads/old",
				Deleted:   true,
				CommitSHA: "abc123",
			},
		},
		{
			name: "unknown event type",
			event: &model.WebhookEvent{
				ID:   "delivery-5",
				Type: model.EventTypeUnknown,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &mockOrchestrator{}
			dispatcher := &syncDispatcher{}
			uc := usecase.NewWebhook(usecase.NewSource(&mockSourceHost{}), orch, dispatcher, webhookSettings)

			gt.NoError(t, uc.ProcessEvent(context.Background(), tt.event))
			gt.Number(t, dispatcher.dispatched).Equal(0)
			gt.Number(t, len(orch.runs)).Equal(0)
		})
	}
}

func TestWebhookUseCase_ProcessEvent_FetchFailure(t *testing.T) {
	orch := &mockOrchestrator{}
	host := &mockSourceHost{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return nil, errors.New("404 not found")
		},
	}
	uc := usecase.NewWebhook(usecase.NewSource(host), orch, &syncDispatcher{}, webhookSettings)

	err := uc.ProcessEvent(context.Background(), &model.WebhookEvent{
		Type:      model.EventTypePush,
		Ref:       "refs/heads/master",
		CommitSHA: "abc123",
	})
	gt.NoError(t, err)
	gt.Number(t, len(orch.runs)).Equal(0)
}

func TestWebhookUseCase_ProcessEvent_InvalidSettings(t *testing.T) {
	uc := usecase.NewWebhook(usecase.NewSource(&mockSourceHost{}), &mockOrchestrator{}, &syncDispatcher{}, usecase.RunSettings{})

	err := uc.ProcessEvent(context.Background(), &model.WebhookEvent{
		Type:      model.EventTypePush,
		Ref:       "refs/heads/master",
		CommitSHA: "abc123",
	})
	gt.Error(t, err)
}
