package model

import "time"

// BuildStatus is the outcome of one Build Runner invocation
type BuildStatus string

const (
	BuildSuccess   BuildStatus = "success"
	BuildFailure   BuildStatus = "failure"
	BuildCancelled BuildStatus = "cancelled"
)

// CompileRequest is passed to the external toolchain
type CompileRequest struct {
	SourceDir string
	TargetDir string // per-leg build output directory, also the cached directory
	Triple    string
	Channel   Channel
	CrateName string
}

// CompileOutput is what the toolchain reports back
type CompileOutput struct {
	ExitCode     int
	ArtifactPath string
	Log          string
}

// BuildResult is created once per leg per run and never modified afterwards
type BuildResult struct {
	Target       TargetSpec
	SourceDir    string
	TargetDir    string
	ArtifactPath string
	Status       BuildStatus
	Log          string
	Duration     time.Duration
}
