package interfaces

import (
	"context"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// Notifier delivers a run summary once the run is done
type Notifier interface {
	NotifyRun(ctx context.Context, report *model.RunReport) error
}
