package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/infra/archive"
	"github.com/m-mizutani/convoy/pkg/usecase"
)

func successfulBuild(t *testing.T) *model.BuildResult {
	t.Helper()
	sourceDir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(sourceDir, "README.md"), []byte("# svd2rust"), 0644))
	gt.NoError(t, os.WriteFile(filepath.Join(sourceDir, "LICENSE-MIT"), []byte("MIT"), 0644))
	gt.NoError(t, os.WriteFile(filepath.Join(sourceDir, "Cargo.toml"), []byte("[package]"), 0644))

	targetDir := t.TempDir()
	out, err := writeArtifact(context.Background(), &model.CompileRequest{
		TargetDir: targetDir,
		Triple:    linuxLeg.Triple,
		CrateName: "svd2rust",
	})
	gt.NoError(t, err)

	return &model.BuildResult{
		Target:       linuxLeg,
		SourceDir:    sourceDir,
		TargetDir:    targetDir,
		ArtifactPath: out.ArtifactPath,
		Status:       model.BuildSuccess,
	}
}

func TestPackager_FileNameIsDeterministic(t *testing.T) {
	p := usecase.NewPackager(archive.NewTarGz(), t.TempDir())

	name := p.FileName("svd2rust", "v1.0.0", "x86_64-unknown-linux-gnu")
	gt.Value(t, name).Equal("svd2rust-v1.0.0-x86_64-unknown-linux-gnu.tar.gz")
	gt.Value(t, p.FileName("svd2rust", "v1.0.0", "x86_64-unknown-linux-gnu")).Equal(name)
	gt.Value(t, p.FileName("svd2rust", "v1.0.0", "i686-unknown-linux-gnu")).NotEqual(name)
}

func TestPackager_Package(t *testing.T) {
	outDir := t.TempDir()
	p := usecase.NewPackager(archive.NewTarGz(), outDir)

	artifact, err := p.Package(context.Background(), successfulBuild(t), tagRun())
	gt.NoError(t, err)
	gt.Value(t, artifact.FileName).Equal("svd2rust-v1.0.0-x86_64-unknown-linux-gnu.tar.gz")
	gt.Value(t, artifact.Path).Equal(filepath.Join(outDir, artifact.FileName))
	gt.Value(t, artifact.Target).Equal(linuxLeg)
	gt.Number(t, artifact.Size).Greater(int64(0))

	f, err := os.Open(artifact.Path)
	gt.NoError(t, err)
	defer f.Close()

	extracted := t.TempDir()
	gt.NoError(t, archive.ExtractTarGz(f, extracted))

	for _, name := range []string{"svd2rust", "README.md", "LICENSE-MIT"} {
		_, err := os.Stat(filepath.Join(extracted, name))
		gt.NoError(t, err)
	}
	_, err = os.Stat(filepath.Join(extracted, "Cargo.toml"))
	gt.True(t, os.IsNotExist(err))
}

func TestPackager_BranchRunUsesSanitizedRef(t *testing.T) {
	p := usecase.NewPackager(archive.NewTarGz(), t.TempDir())
	rc := model.NewRunContext(model.EventPushBranch, "refs/heads/feature/x", model.ChannelStable, "svd2rust", model.HostLinux)

	artifact, err := p.Package(context.Background(), successfulBuild(t), rc)
	gt.NoError(t, err)
	gt.Value(t, artifact.FileName).Equal("svd2rust-feature-x-x86_64-unknown-linux-gnu.tar.gz")
}

func TestPackager_MissingArtifact(t *testing.T) {
	p := usecase.NewPackager(archive.NewTarGz(), t.TempDir())

	t.Run("empty location", func(t *testing.T) {
		result := successfulBuild(t)
		result.ArtifactPath = ""
		_, err := p.Package(context.Background(), result, tagRun())
		gt.True(t, goerr.HasTag(err, model.ErrTagPackaging))
	})

	t.Run("file does not exist", func(t *testing.T) {
		result := successfulBuild(t)
		gt.NoError(t, os.Remove(result.ArtifactPath))
		_, err := p.Package(context.Background(), result, tagRun())
		gt.True(t, goerr.HasTag(err, model.ErrTagPackaging))
	})

	t.Run("empty file", func(t *testing.T) {
		result := successfulBuild(t)
		gt.NoError(t, os.WriteFile(result.ArtifactPath, nil, 0700))
		_, err := p.Package(context.Background(), result, tagRun())
		gt.True(t, goerr.HasTag(err, model.ErrTagPackaging))
	})

	t.Run("unsuccessful build", func(t *testing.T) {
		result := successfulBuild(t)
		result.Status = model.BuildFailure
		_, err := p.Package(context.Background(), result, tagRun())
		gt.True(t, goerr.HasTag(err, model.ErrTagPackaging))
	})
}

func TestPackager_AmbiguousArchive(t *testing.T) {
	outDir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(outDir, "svd2rust-v1.0.0-x86_64-unknown-linux-gnu.zip"), []byte("stale"), 0644))
	p := usecase.NewPackager(archive.NewTarGz(), outDir)

	_, err := p.Package(context.Background(), successfulBuild(t), tagRun())
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagPackaging))
}

func TestPackager_WithExtraFiles(t *testing.T) {
	p := usecase.NewPackager(archive.NewTarGz(), t.TempDir(), usecase.WithExtraFiles(nil))

	artifact, err := p.Package(context.Background(), successfulBuild(t), tagRun())
	gt.NoError(t, err)

	f, err := os.Open(artifact.Path)
	gt.NoError(t, err)
	defer f.Close()

	extracted := t.TempDir()
	gt.NoError(t, archive.ExtractTarGz(f, extracted))
	entries, err := os.ReadDir(extracted)
	gt.NoError(t, err)
	gt.Number(t, len(entries)).Equal(1)
}
