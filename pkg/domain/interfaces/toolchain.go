package interfaces

import (
	"context"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// Toolchain compiles the project for one target triple.
// A non-zero exit is reported through CompileOutput.ExitCode, not as an error;
// errors mean the toolchain could not be run at all.
type Toolchain interface {
	Compile(ctx context.Context, req *model.CompileRequest) (*model.CompileOutput, error)
}

// Archiver bundles a directory into a single archive file
type Archiver interface {
	// Extension is the archive file extension without a leading dot
	Extension() string
	Archive(ctx context.Context, srcDir, destPath string) error
}
