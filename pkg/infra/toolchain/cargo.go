package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// DefaultArgs cross-compiles a release build with rustup's channel selector
var DefaultArgs = []string{"+{channel}", "build", "--release", "--target", "{triple}"}

// Cargo runs the Rust toolchain as an external process
type Cargo struct {
	command string
	args    []string
	binary  string
	env     []string
}

// Option is a functional option for Cargo
type Option func(*Cargo)

// WithCommand overrides the executable (default "cargo")
func WithCommand(command string) Option {
	return func(c *Cargo) {
		c.command = command
	}
}

// WithArgs overrides the argument template. {channel}, {triple} and {crate} are substituted.
func WithArgs(args []string) Option {
	return func(c *Cargo) {
		c.args = args
	}
}

// WithBinary sets the produced binary name when it differs from the crate name
func WithBinary(name string) Option {
	return func(c *Cargo) {
		c.binary = name
	}
}

// WithEnv appends KEY=VALUE entries to the toolchain environment
func WithEnv(env []string) Option {
	return func(c *Cargo) {
		c.env = append(c.env, env...)
	}
}

// NewCargo creates a toolchain adapter
func NewCargo(opts ...Option) *Cargo {
	c := &Cargo{
		command: "cargo",
		args:    DefaultArgs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ interfaces.Toolchain = (*Cargo)(nil)

// Compile builds req.Triple. Build output goes to req.TargetDir so that it can be cached per leg.
func (c *Cargo) Compile(ctx context.Context, req *model.CompileRequest) (*model.CompileOutput, error) {
	replacer := strings.NewReplacer(
		"{channel}", string(req.Channel),
		"{triple}", req.Triple,
		"{crate}", req.CrateName,
	)
	args := make([]string, len(c.args))
	for i, arg := range c.args {
		args[i] = replacer.Replace(arg)
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = req.SourceDir
	cmd.Env = append(os.Environ(), c.env...)
	if req.TargetDir != "" {
		cmd.Env = append(cmd.Env, "CARGO_TARGET_DIR="+req.TargetDir)
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	out := &model.CompileOutput{
		Log: output.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		out.ArtifactPath = c.artifactPath(req)
	case ctx.Err() != nil:
		return out, goerr.Wrap(ctx.Err(), "toolchain interrupted", goerr.V("triple", req.Triple))
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		return out, goerr.Wrap(err, "failed to run toolchain", goerr.V("command", c.command), goerr.V("triple", req.Triple))
	}

	return out, nil
}

func (c *Cargo) artifactPath(req *model.CompileRequest) string {
	binary := c.binary
	if binary == "" {
		binary = req.CrateName
	}
	targetDir := req.TargetDir
	if targetDir == "" {
		targetDir = filepath.Join(req.SourceDir, "target")
	}
	return filepath.Join(targetDir, req.Triple, "release", binary)
}
