package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/usecase"
)

func testArtifact(target model.TargetSpec) *model.PackagedArtifact {
	return &model.PackagedArtifact{
		FileName: model.ArtifactFileName("svd2rust", "v1.0.0", target.Triple, "tar.gz"),
		Path:     "/nonexistent",
		Target:   target,
	}
}

func TestPublisher_Publish(t *testing.T) {
	host := &mockReleaseHost{}
	p := usecase.NewPublisher(host)

	result := p.Publish(context.Background(), testArtifact(linuxLeg), tagRun())
	gt.Value(t, result.Status).Equal(model.PublishPublished)
	gt.Value(t, result.Tag).Equal("v1.0.0")
	gt.True(t, result.Succeeded())
	gt.Value(t, host.Uploaded()).Equal([]string{"v1.0.0/svd2rust-v1.0.0-x86_64-unknown-linux-gnu.tar.gz"})
}

func TestPublisher_RepublishIsIdempotent(t *testing.T) {
	attached := map[string]bool{}
	host := &mockReleaseHost{
		uploadFunc: func(ctx context.Context, tag string, artifact *model.PackagedArtifact) error {
			if attached[artifact.FileName] {
				return goerr.New("release asset already exists", goerr.T(model.ErrTagAssetExists))
			}
			attached[artifact.FileName] = true
			return nil
		},
	}
	p := usecase.NewPublisher(host)
	artifact := testArtifact(linuxLeg)

	first := p.Publish(context.Background(), artifact, tagRun())
	second := p.Publish(context.Background(), artifact, tagRun())

	gt.Value(t, first.Status).Equal(model.PublishPublished)
	gt.Value(t, second.Status).Equal(model.PublishAlreadyPresent)
	gt.True(t, second.Succeeded())
	gt.Number(t, len(attached)).Equal(1)
}

func TestPublisher_TransportFailure(t *testing.T) {
	host := &mockReleaseHost{
		uploadFunc: func(ctx context.Context, tag string, artifact *model.PackagedArtifact) error {
			return errors.New("502 bad gateway")
		},
	}
	p := usecase.NewPublisher(host)

	result := p.Publish(context.Background(), testArtifact(linuxLeg), tagRun())
	gt.Value(t, result.Status).Equal(model.PublishFailure)
	gt.String(t, result.Error).Contains("502")
	gt.False(t, result.Succeeded())
	// never retried
	gt.Number(t, len(host.Uploaded())).Equal(1)
}

func TestPublisher_NotAttempted(t *testing.T) {
	host := &mockReleaseHost{}
	p := usecase.NewPublisher(host)

	t.Run("gate denied", func(t *testing.T) {
		rc := model.NewRunContext(model.EventPushTag, "v1.0.0", model.ChannelNightly, "svd2rust", model.HostLinux)
		result := p.Publish(context.Background(), testArtifact(linuxLeg), rc)
		gt.Value(t, result.Status).Equal(model.PublishNotAttempted)
	})

	t.Run("vendor leg", func(t *testing.T) {
		vendor := model.TargetSpec{Triple: "thumbv7m-none-eabi", HostClass: model.HostLinux, Channel: model.ChannelNightly, VendorTag: "STMicro"}
		result := p.Publish(context.Background(), testArtifact(vendor), tagRun())
		gt.Value(t, result.Status).Equal(model.PublishNotAttempted)
	})

	gt.Number(t, len(host.Uploaded())).Equal(0)
}

func TestPublisher_NoHost(t *testing.T) {
	p := usecase.NewPublisher(nil)

	result := p.Publish(context.Background(), testArtifact(linuxLeg), tagRun())
	gt.Value(t, result.Status).Equal(model.PublishFailure)
}
