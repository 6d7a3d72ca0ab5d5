package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// DefaultExtraFiles are copied from the source root into every archive when present
var DefaultExtraFiles = []string{"README*", "LICENSE*", "CHANGELOG*"}

// Packager names and archives build artifacts
type Packager struct {
	archiver   interfaces.Archiver
	outDir     string
	extraFiles []string
}

// PackagerOption is a functional option for Packager
type PackagerOption func(*Packager)

// WithExtraFiles replaces the glob patterns of files bundled beside the binary
func WithExtraFiles(patterns []string) PackagerOption {
	return func(p *Packager) {
		p.extraFiles = patterns
	}
}

// NewPackager creates a Packager writing archives into outDir
func NewPackager(archiver interfaces.Archiver, outDir string, opts ...PackagerOption) *Packager {
	p := &Packager{
		archiver:   archiver,
		outDir:     outDir,
		extraFiles: DefaultExtraFiles,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FileName returns the deterministic archive name for (crate, version, triple)
func (p *Packager) FileName(crateName, versionTag, triple string) string {
	return model.ArtifactFileName(crateName, versionTag, triple, p.archiver.Extension())
}

// Package archives a successful build. An empty or missing artifact means the toolchain
// broke its contract and is reported with model.ErrTagPackaging.
func (p *Packager) Package(ctx context.Context, result *model.BuildResult, rc model.RunContext) (*model.PackagedArtifact, error) {
	logger := ctxlog.From(ctx)
	triple := result.Target.Triple

	if result.Status != model.BuildSuccess {
		return nil, goerr.New("cannot package an unsuccessful build",
			goerr.V("triple", triple), goerr.V("status", result.Status), goerr.T(model.ErrTagPackaging))
	}
	if result.ArtifactPath == "" {
		return nil, goerr.New("toolchain reported success without an artifact",
			goerr.V("triple", triple), goerr.T(model.ErrTagPackaging))
	}

	st, err := os.Stat(result.ArtifactPath)
	if err != nil {
		return nil, goerr.Wrap(err, "build artifact is missing",
			goerr.V("triple", triple), goerr.V("path", result.ArtifactPath), goerr.T(model.ErrTagPackaging))
	}
	if st.IsDir() || st.Size() == 0 {
		return nil, goerr.New("build artifact is empty",
			goerr.V("triple", triple), goerr.V("path", result.ArtifactPath), goerr.T(model.ErrTagPackaging))
	}

	stage, err := os.MkdirTemp("", "convoy-stage-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(stage)

	if err := copyFile(result.ArtifactPath, filepath.Join(stage, filepath.Base(result.ArtifactPath)), st.Mode().Perm()); err != nil {
		return nil, goerr.Wrap(err, "failed to stage artifact", goerr.V("triple", triple))
	}
	if err := p.stageExtras(result.SourceDir, stage); err != nil {
		return nil, goerr.Wrap(err, "failed to stage extra files", goerr.V("triple", triple))
	}

	if err := os.MkdirAll(p.outDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create output directory", goerr.V("dir", p.outDir))
	}

	version := rc.ArchiveVersion()
	fileName := p.FileName(rc.CrateName, version, triple)
	if err := p.archiver.Archive(ctx, stage, filepath.Join(p.outDir, fileName)); err != nil {
		return nil, goerr.Wrap(err, "failed to archive artifact", goerr.V("triple", triple), goerr.T(model.ErrTagPackaging))
	}

	// Exactly one archive per leg must exist under the naming scheme
	pattern := filepath.Join(p.outDir, model.ArtifactBaseName(rc.CrateName, version, triple)+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid archive pattern", goerr.V("pattern", pattern), goerr.T(model.ErrTagPackaging))
	}
	if len(matches) != 1 {
		return nil, goerr.New("expected exactly one archive",
			goerr.V("pattern", pattern), goerr.V("matches", matches), goerr.T(model.ErrTagPackaging))
	}

	archived, err := os.Stat(matches[0])
	if err != nil {
		return nil, goerr.Wrap(err, "archive disappeared", goerr.V("path", matches[0]), goerr.T(model.ErrTagPackaging))
	}

	logger.Info("Packaged artifact", "file", filepath.Base(matches[0]), "size_bytes", archived.Size())

	return &model.PackagedArtifact{
		FileName: filepath.Base(matches[0]),
		Path:     matches[0],
		Size:     archived.Size(),
		Target:   result.Target,
	}, nil
}

func (p *Packager) stageExtras(sourceDir, stage string) error {
	if sourceDir == "" {
		return nil
	}
	for _, pattern := range p.extraFiles {
		matches, err := filepath.Glob(filepath.Join(sourceDir, pattern))
		if err != nil {
			return goerr.Wrap(err, "invalid extra file pattern", goerr.V("pattern", pattern))
		}
		for _, m := range matches {
			st, err := os.Stat(m)
			if err != nil || !st.Mode().IsRegular() {
				continue
			}
			if err := copyFile(m, filepath.Join(stage, filepath.Base(m)), 0644); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return goerr.Wrap(err, "failed to open file", goerr.V("path", src))
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return goerr.Wrap(err, "failed to create file", goerr.V("path", dst))
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return goerr.Wrap(err, "failed to copy file", goerr.V("src", src), goerr.V("dst", dst))
	}
	return nil
}
