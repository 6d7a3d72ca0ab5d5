package usecase_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/usecase"
)

func TestSourceUseCase_Fetch(t *testing.T) {
	zipData := createTestZip(t, map[string]string{
		"rust-embedded-svd2rust-abc123/Cargo.toml": "[package]\nname = \"svd2rust\"\n",
		"rust-embedded-svd2rust-abc123/Cargo.lock": "version = 3\n",
		"rust-embedded-svd2rust-abc123/src/lib.rs": "pub fn generate() {}\n",
	})
	host := &mockSourceHost{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return zipData, nil
		},
	}

	tree, err := usecase.NewSource(host).Fetch(context.Background(), &model.SourceRef{
		Owner:     "rust-embedded",
		Repo:      "svd2rust",
		CommitSHA: "abc123",
	})
	gt.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tree.TempDir) })

	gt.Value(t, host.calls).Equal([]string{"rust-embedded/svd2rust@abc123"})
	gt.Value(t, tree.Root).Equal(filepath.Join(tree.TempDir, "rust-embedded-svd2rust-abc123"))
	gt.Number(t, len(tree.Files)).Equal(3)
	gt.Number(t, tree.Size).Greater(int64(0))

	data, err := os.ReadFile(filepath.Join(tree.Root, "src", "lib.rs"))
	gt.NoError(t, err)
	gt.String(t, string(data)).Contains("generate")
}

func TestSourceUseCase_Fetch_DownloadError(t *testing.T) {
	host := &mockSourceHost{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return nil, errors.New("network error")
		},
	}

	tree, err := usecase.NewSource(host).Fetch(context.Background(), &model.SourceRef{Owner: "o", Repo: "r", CommitSHA: "abc"})
	gt.Error(t, err)
	gt.Value(t, tree).Nil()
	gt.String(t, err.Error()).Contains("failed to download zipball")
}

func TestSourceUseCase_Fetch_InvalidZip(t *testing.T) {
	host := &mockSourceHost{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return []byte("this is not valid zip data"), nil
		},
	}

	tree, err := usecase.NewSource(host).Fetch(context.Background(), &model.SourceRef{Owner: "o", Repo: "r", CommitSHA: "abc"})
	gt.Error(t, err)
	gt.Value(t, tree).Nil()
	gt.String(t, err.Error()).Contains("failed to extract zip")
}

func TestSourceUseCase_Fetch_PathTraversal(t *testing.T) {
	zipData := createTestZip(t, map[string]string{
		"../escape.txt": "owned",
	})
	host := &mockSourceHost{
		downloadZipballFunc: func(ctx context.Context, owner, repo, ref string) ([]byte, error) {
			return zipData, nil
		},
	}

	_, err := usecase.NewSource(host).Fetch(context.Background(), &model.SourceRef{Owner: "o", Repo: "r", CommitSHA: "abc"})
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("failed to extract zip")
}

// createTestZip creates a ZIP file shaped like a GitHub zipball
func createTestZip(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for filename, content := range files {
		writer, err := zipWriter.Create(filename)
		gt.NoError(t, err)

		_, err = writer.Write([]byte(content))
		gt.NoError(t, err)
	}

	gt.NoError(t, zipWriter.Close())
	return buf.Bytes()
}
