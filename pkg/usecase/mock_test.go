package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

type mockToolchain struct {
	compileFunc func(ctx context.Context, req *model.CompileRequest) (*model.CompileOutput, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockToolchain) Compile(ctx context.Context, req *model.CompileRequest) (*model.CompileOutput, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.Triple)
	m.mu.Unlock()
	if m.compileFunc != nil {
		return m.compileFunc(ctx, req)
	}
	return nil, errors.New("mock not configured")
}

func (m *mockToolchain) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// writeArtifact emulates a successful cargo build producing a binary in the target dir
func writeArtifact(_ context.Context, req *model.CompileRequest) (*model.CompileOutput, error) {
	dir := filepath.Join(req.TargetDir, req.Triple, "release")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, req.CrateName)
	if err := os.WriteFile(path, []byte("binary for "+req.Triple), 0700); err != nil {
		return nil, err
	}
	return &model.CompileOutput{ExitCode: 0, ArtifactPath: path, Log: "Finished release"}, nil
}

type mockReleaseHost struct {
	uploadFunc func(ctx context.Context, tag string, artifact *model.PackagedArtifact) error

	mu       sync.Mutex
	uploaded []string
}

func (m *mockReleaseHost) Upload(ctx context.Context, tag string, artifact *model.PackagedArtifact) error {
	m.mu.Lock()
	m.uploaded = append(m.uploaded, tag+"/"+artifact.FileName)
	m.mu.Unlock()
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, tag, artifact)
	}
	return nil
}

func (m *mockReleaseHost) Uploaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.uploaded...)
}

type mockCacheStore struct {
	loadFunc func(ctx context.Context, key model.CacheKey, dest string) (bool, error)
	saveFunc func(ctx context.Context, key model.CacheKey, src string) error

	mu    sync.Mutex
	saves int
}

func (m *mockCacheStore) Load(ctx context.Context, key model.CacheKey, dest string) (bool, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, key, dest)
	}
	return false, nil
}

func (m *mockCacheStore) Save(ctx context.Context, key model.CacheKey, src string) error {
	m.mu.Lock()
	m.saves++
	m.mu.Unlock()
	if m.saveFunc != nil {
		return m.saveFunc(ctx, key, src)
	}
	return nil
}

func (m *mockCacheStore) Location(key model.CacheKey) string {
	return "mock://" + key.String()
}

func (m *mockCacheStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type mockNotifier struct {
	reports []*model.RunReport
	err     error
}

func (m *mockNotifier) NotifyRun(_ context.Context, report *model.RunReport) error {
	m.reports = append(m.reports, report)
	return m.err
}

type mockSourceHost struct {
	downloadZipballFunc func(ctx context.Context, owner, repo, ref string) ([]byte, error)
	calls               []string
}

func (m *mockSourceHost) DownloadZipball(ctx context.Context, owner, repo, ref string) ([]byte, error) {
	m.calls = append(m.calls, owner+"/"+repo+"@"+ref)
	if m.downloadZipballFunc != nil {
		return m.downloadZipballFunc(ctx, owner, repo, ref)
	}
	return nil, errors.New("mock not configured")
}

// tagRun is a stable tag push on linux, the only publishing configuration
func tagRun() model.RunContext {
	return model.NewRunContext(model.EventPushTag, "refs/tags/v1.0.0", model.ChannelStable, "svd2rust", model.HostLinux)
}
