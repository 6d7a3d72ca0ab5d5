package config

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/convoy/pkg/infra/archive"
	"github.com/m-mizutani/convoy/pkg/infra/toolchain"
	"github.com/m-mizutani/convoy/pkg/usecase"
)

// Build holds toolchain and packaging configuration
type Build struct {
	Command     string
	Args        []string
	Binary      string
	Env         []string
	Timeout     time.Duration
	Parallelism int
	OutDir      string
	WorkDir     string
	ExtraFiles  []string
}

// Flags returns CLI flags for build configuration
func (c *Build) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cargo",
			Usage:       "Toolchain executable",
			Value:       "cargo",
			Destination: &c.Command,
			Sources:     cli.EnvVars("CONVOY_CARGO"),
		},
		&cli.StringSliceFlag{
			Name:        "cargo-arg",
			Usage:       "Toolchain argument template ({channel}, {triple} and {crate} are substituted)",
			Value:       toolchain.DefaultArgs,
			Destination: &c.Args,
			Sources:     cli.EnvVars("CONVOY_CARGO_ARGS"),
		},
		&cli.StringFlag{
			Name:        "binary",
			Usage:       "Name of the produced binary when it differs from the crate name",
			Destination: &c.Binary,
			Sources:     cli.EnvVars("CONVOY_BINARY"),
		},
		&cli.StringSliceFlag{
			Name:        "build-env",
			Usage:       "Extra KEY=VALUE environment for the toolchain",
			Destination: &c.Env,
			Sources:     cli.EnvVars("CONVOY_BUILD_ENV"),
		},
		&cli.DurationFlag{
			Name:        "build-timeout",
			Usage:       "Per-leg build timeout (0 disables)",
			Value:       time.Hour,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("CONVOY_BUILD_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:        "parallelism",
			Usage:       "Maximum legs built at once (0 means unlimited)",
			Destination: &c.Parallelism,
			Sources:     cli.EnvVars("CONVOY_PARALLELISM"),
		},
		&cli.StringFlag{
			Name:        "out-dir",
			Usage:       "Directory receiving release archives",
			Value:       "dist",
			Destination: &c.OutDir,
			Sources:     cli.EnvVars("CONVOY_OUT_DIR"),
		},
		&cli.StringFlag{
			Name:        "work-dir",
			Usage:       "Directory for build output, laid out as {run id}/{triple} (temporary when empty)",
			Destination: &c.WorkDir,
			Sources:     cli.EnvVars("CONVOY_WORK_DIR"),
		},
		&cli.StringSliceFlag{
			Name:        "extra-file",
			Usage:       "Glob of source root files bundled beside the binary",
			Value:       usecase.DefaultExtraFiles,
			Destination: &c.ExtraFiles,
			Sources:     cli.EnvVars("CONVOY_EXTRA_FILES"),
		},
	}
}

// NewBuildRunner creates the Build Runner around the cargo toolchain
func (c *Build) NewBuildRunner() *usecase.BuildRunner {
	opts := []toolchain.Option{
		toolchain.WithCommand(c.Command),
		toolchain.WithEnv(c.Env),
	}
	if len(c.Args) > 0 {
		opts = append(opts, toolchain.WithArgs(c.Args))
	}
	if c.Binary != "" {
		opts = append(opts, toolchain.WithBinary(c.Binary))
	}
	return usecase.NewBuildRunner(toolchain.NewCargo(opts...), c.Timeout)
}

// NewPackager creates the Packager writing tar.gz archives into OutDir
func (c *Build) NewPackager() *usecase.Packager {
	return usecase.NewPackager(archive.NewTarGz(), c.OutDir, usecase.WithExtraFiles(c.ExtraFiles))
}

// OrchestratorOptions returns the orchestrator options derived from build settings
func (c *Build) OrchestratorOptions() []usecase.OrchestratorOption {
	opts := []usecase.OrchestratorOption{usecase.WithParallelism(c.Parallelism)}
	if c.WorkDir != "" {
		opts = append(opts, usecase.WithWorkDir(c.WorkDir))
	}
	return opts
}
