package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
)

type sourceUseCase struct {
	host interfaces.SourceHost
}

// NewSource creates a SourceUseCase downloading commit zipballs
func NewSource(host interfaces.SourceHost) interfaces.SourceUseCase {
	return &sourceUseCase{
		host: host,
	}
}

// Fetch downloads the commit snapshot and extracts it to a temporary directory.
// The caller owns SourceTree.TempDir and must remove it.
func (uc *sourceUseCase) Fetch(ctx context.Context, ref *model.SourceRef) (*model.SourceTree, error) {
	logger := ctxlog.From(ctx)

	zipData, err := uc.host.DownloadZipball(ctx, ref.Owner, ref.Repo, ref.CommitSHA)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download zipball",
			goerr.V("owner", ref.Owner), goerr.V("repo", ref.Repo), goerr.V("commit_sha", ref.CommitSHA))
	}

	logger.Info("Downloaded zipball",
		"size_bytes", len(zipData),
		"owner", ref.Owner,
		"repo", ref.Repo,
	)

	tree, err := uc.extractZip(ctx, zipData)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to extract zip", goerr.V("owner", ref.Owner), goerr.V("repo", ref.Repo))
	}

	logger.Info("Extracted source tree",
		"root", tree.Root,
		"file_count", len(tree.Files),
		"total_size_bytes", tree.Size,
	)

	return tree, nil
}

// extractZip extracts ZIP data to a temporary directory
func (uc *sourceUseCase) extractZip(ctx context.Context, zipData []byte) (*model.SourceTree, error) {
	logger := ctxlog.From(ctx)

	tempDir, err := os.MkdirTemp("", "convoy-source-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary directory")
	}

	if err := os.Chmod(tempDir, 0700); err != nil {
		os.RemoveAll(tempDir)
		return nil, goerr.Wrap(err, "failed to set directory permissions", goerr.V("dir", tempDir))
	}

	logger.Debug("Created temporary directory", "temp_dir", tempDir)

	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, goerr.Wrap(err, "failed to create zip reader")
	}

	var extractedFiles []string
	var totalSize int64
	topLevel := map[string]struct{}{}

	for _, file := range zipReader.File {
		if err := uc.extractFile(file, tempDir); err != nil {
			os.RemoveAll(tempDir)
			return nil, goerr.Wrap(err, "failed to extract file", goerr.V("file", file.Name))
		}

		extractedFiles = append(extractedFiles, file.Name)
		totalSize += int64(file.UncompressedSize64)
		top, _, _ := strings.Cut(file.Name, "/")
		topLevel[top] = struct{}{}
	}

	// GitHub zipballs wrap the tree in a single {owner}-{repo}-{sha} directory
	root := tempDir
	if len(topLevel) == 1 {
		for top := range topLevel {
			candidate := filepath.Join(tempDir, top)
			if st, err := os.Stat(candidate); err == nil && st.IsDir() {
				root = candidate
			}
		}
	}

	return &model.SourceTree{
		TempDir: tempDir,
		Root:    root,
		Files:   extractedFiles,
		Size:    totalSize,
	}, nil
}

// extractFile extracts a single file from ZIP to the destination directory
func (uc *sourceUseCase) extractFile(file *zip.File, destDir string) error {
	// Security check: prevent path traversal attacks
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return goerr.New("invalid file path detected", goerr.V("file", file.Name), goerr.V("dest", destPath))
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, file.FileInfo().Mode().Perm()|0700)
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open file in zip", goerr.V("file", file.Name))
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories", goerr.V("dir", filepath.Dir(destPath)))
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.FileInfo().Mode().Perm())
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, rc); err != nil {
		return goerr.Wrap(err, "failed to copy file content", goerr.V("path", destPath))
	}

	return nil
}
