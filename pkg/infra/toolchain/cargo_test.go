package toolchain_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/infra/toolchain"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

func newRequest(t *testing.T) *model.CompileRequest {
	return &model.CompileRequest{
		SourceDir: t.TempDir(),
		TargetDir: t.TempDir(),
		Triple:    "x86_64-unknown-linux-gnu",
		Channel:   model.ChannelStable,
		CrateName: "svd2rust",
	}
}

func TestCargo_Success(t *testing.T) {
	requireShell(t)
	req := newRequest(t)

	tc := toolchain.NewCargo(
		toolchain.WithCommand("sh"),
		toolchain.WithArgs([]string{"-c", "echo building {crate} for {triple} on {channel}; echo target=$CARGO_TARGET_DIR"}),
	)

	out, err := tc.Compile(context.Background(), req)
	gt.NoError(t, err)
	gt.Value(t, out.ExitCode).Equal(0)
	gt.String(t, out.Log).Contains("building svd2rust for x86_64-unknown-linux-gnu on stable")
	gt.String(t, out.Log).Contains("target=" + req.TargetDir)
	gt.Value(t, out.ArtifactPath).Equal(filepath.Join(req.TargetDir, "x86_64-unknown-linux-gnu", "release", "svd2rust"))
}

func TestCargo_NonZeroExit(t *testing.T) {
	requireShell(t)
	req := newRequest(t)

	tc := toolchain.NewCargo(
		toolchain.WithCommand("sh"),
		toolchain.WithArgs([]string{"-c", "echo error: linker not found >&2; exit 101"}),
	)

	out, err := tc.Compile(context.Background(), req)
	gt.NoError(t, err)
	gt.Value(t, out.ExitCode).Equal(101)
	gt.String(t, out.Log).Contains("linker not found")
	gt.Value(t, out.ArtifactPath).Equal("")
}

func TestCargo_Cancelled(t *testing.T) {
	requireShell(t)
	req := newRequest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	tc := toolchain.NewCargo(
		toolchain.WithCommand("sh"),
		toolchain.WithArgs([]string{"-c", "sleep 5"}),
	)

	_, err := tc.Compile(ctx, req)
	gt.Error(t, err)
}

func TestCargo_MissingCommand(t *testing.T) {
	tc := toolchain.NewCargo(toolchain.WithCommand("convoy-no-such-toolchain"))

	_, err := tc.Compile(context.Background(), newRequest(t))
	gt.Error(t, err)
}

func TestCargo_BinaryOverride(t *testing.T) {
	requireShell(t)
	req := newRequest(t)

	tc := toolchain.NewCargo(
		toolchain.WithCommand("sh"),
		toolchain.WithArgs([]string{"-c", "true"}),
		toolchain.WithBinary("svd2rust-cli"),
	)

	out, err := tc.Compile(context.Background(), req)
	gt.NoError(t, err)
	gt.Value(t, filepath.Base(out.ArtifactPath)).Equal("svd2rust-cli")
}
