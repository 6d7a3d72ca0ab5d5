package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// BuildRunner invokes the toolchain for one leg
type BuildRunner struct {
	toolchain interfaces.Toolchain
	timeout   time.Duration
}

// NewBuildRunner creates a BuildRunner. timeout <= 0 disables the per-leg deadline.
func NewBuildRunner(toolchain interfaces.Toolchain, timeout time.Duration) *BuildRunner {
	return &BuildRunner{
		toolchain: toolchain,
		timeout:   timeout,
	}
}

// Build compiles spec. It never returns an error: toolchain problems become
// BuildFailure and interruption becomes BuildCancelled, leaving the decision to the caller.
func (b *BuildRunner) Build(ctx context.Context, spec model.TargetSpec, rc model.RunContext, sourceDir, targetDir string) *model.BuildResult {
	logger := ctxlog.From(ctx)

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := b.toolchain.Compile(ctx, &model.CompileRequest{
		SourceDir: sourceDir,
		TargetDir: targetDir,
		Triple:    spec.Triple,
		Channel:   rc.Channel,
		CrateName: rc.CrateName,
	})

	result := &model.BuildResult{
		Target:    spec,
		SourceDir: sourceDir,
		TargetDir: targetDir,
		Duration:  time.Since(start),
	}
	if out != nil {
		result.Log = out.Log
	}

	switch {
	case ctx.Err() != nil:
		result.Status = model.BuildCancelled
		logger.Warn("Build cancelled", "reason", ctx.Err())
	case err != nil:
		result.Status = model.BuildFailure
		result.Log = appendLog(result.Log, err.Error())
		logger.Warn("Toolchain could not run", "error", err)
	case out == nil || out.ExitCode != 0:
		result.Status = model.BuildFailure
		exitCode := -1
		if out != nil {
			exitCode = out.ExitCode
		}
		logger.Warn("Toolchain failed", "exit_code", exitCode)
	default:
		result.Status = model.BuildSuccess
		result.ArtifactPath = out.ArtifactPath
		logger.Info("Build succeeded",
			"artifact", out.ArtifactPath,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}

	return result
}

func appendLog(log, line string) string {
	if log == "" {
		return line
	}
	return log + "\n" + line
}
