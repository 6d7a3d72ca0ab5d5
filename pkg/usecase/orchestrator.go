package usecase

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m-mizutani/convoy/pkg/domain/interfaces"
	"github.com/m-mizutani/convoy/pkg/domain/model"
	"github.com/m-mizutani/convoy/pkg/domain/registry"
	"github.com/m-mizutani/convoy/pkg/utils/errutil"
)

// LockfileName is the dependency lockfile hashed into the cache key
const LockfileName = "Cargo.lock"

// Orchestrator expands the target matrix for a run and drives every leg to completion
type Orchestrator struct {
	builder   *BuildRunner
	cache     *CacheManager
	packager  *Packager
	publisher *Publisher

	targets     func() []model.TargetSpec
	parallelism int
	notifier    interfaces.Notifier
	workDir     string
}

var _ interfaces.OrchestratorUseCase = (*Orchestrator)(nil)

// OrchestratorOption is a functional option for Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithTargets replaces the compiled-in registry
func WithTargets(targets func() []model.TargetSpec) OrchestratorOption {
	return func(o *Orchestrator) {
		o.targets = targets
	}
}

// WithParallelism bounds the number of legs running at once. n <= 0 means no limit.
func WithParallelism(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.parallelism = n
	}
}

// WithNotifier sends the run summary after Done
func WithNotifier(n interfaces.Notifier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithWorkDir keeps build directories under dir/{run id}/{triple} instead of a removed temp dir.
// Concurrent runs sharing dir never share a leg directory.
func WithWorkDir(dir string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.workDir = dir
	}
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(builder *BuildRunner, cache *CacheManager, packager *Packager, publisher *Publisher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		builder:   builder,
		cache:     cache,
		packager:  packager,
		publisher: publisher,
		targets:   registry.All,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one run. Leg failures are recorded in the report; an error is
// returned only when the run could not start.
func (o *Orchestrator) Run(ctx context.Context, rc model.RunContext, sourceDir string) (*model.RunReport, error) {
	report := &model.RunReport{
		Run:       rc,
		State:     model.RunPending,
		StartedAt: time.Now(),
	}

	if err := rc.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid run context", goerr.V("run_id", rc.ID))
	}

	logger := ctxlog.From(ctx).With("run_id", rc.ID)
	ctx = ctxlog.With(ctx, logger)

	report.State = model.RunExpanding
	var legs []model.TargetSpec
	for _, spec := range o.targets() {
		if spec.RunsOn(rc.HostClass, rc.Channel) {
			legs = append(legs, spec)
		}
	}
	report.Gate = MayPublish(rc)

	logger.Info("Run expanded",
		"event", rc.EventKind,
		"ref", rc.Ref,
		"channel", rc.Channel,
		"host", rc.HostClass,
		"legs", len(legs),
		"publish", report.Gate,
	)

	workDir := o.workDir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "convoy-run-*")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create work directory")
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	}

	var key model.CacheKey
	if o.cache.Enabled() {
		k, err := KeyFor(rc.Channel, filepath.Join(sourceDir, LockfileName))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to compute cache key", goerr.V("run_id", rc.ID))
		}
		key = k
	}

	report.State = model.RunRunning
	report.Legs = make([]model.LegReport, len(legs))

	eg, egCtx := errgroup.WithContext(ctx)
	if o.parallelism > 0 {
		eg.SetLimit(o.parallelism)
	}
	for i, spec := range legs {
		eg.Go(func() error {
			legDir := filepath.Join(workDir, rc.ID, spec.Triple)
			report.Legs[i] = o.runLeg(egCtx, spec, rc, sourceDir, legDir, key.ForTarget(spec.Triple), report.Gate)
			return nil
		})
	}
	_ = eg.Wait() // legs never return errors

	report.State = model.RunAggregating
	report.Status = model.RunSuccess
	for _, leg := range report.Legs {
		if leg.Failed() {
			report.Status = model.RunFailure
			break
		}
	}
	report.FinishedAt = time.Now()
	report.State = model.RunDone

	logger.Info("Run done",
		"status", report.Status,
		"failed_legs", len(report.FailedLegs()),
		"publish_failures", len(report.PublishFailures()),
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)

	if o.notifier != nil {
		if err := o.notifier.NotifyRun(ctx, report); err != nil {
			logger.Warn("Failed to send run notification", "error", err)
		}
	}

	return report, nil
}

func (o *Orchestrator) runLeg(ctx context.Context, spec model.TargetSpec, rc model.RunContext, sourceDir, legDir string, key model.CacheKey, gate bool) model.LegReport {
	logger := ctxlog.From(ctx).With("triple", spec.Triple)
	ctx = ctxlog.With(ctx, logger)
	start := time.Now()

	leg := model.LegReport{
		Target:  spec,
		Package: model.PackageNotAttempted,
		Publish: model.PublishResult{Status: model.PublishNotAttempted},
	}

	if err := os.MkdirAll(legDir, 0755); err != nil {
		leg.Build = model.BuildFailure
		leg.Error = err.Error()
		errutil.Handle(ctx, "failed to prepare leg directory", err)
		return finishLeg(&leg, start)
	}

	if o.cache.Enabled() {
		entry, err := o.cache.Restore(ctx, key, legDir)
		if err != nil {
			logger.Warn("Cache restore failed, building cold", "error", err)
		}
		leg.CacheHit = entry != nil
	}

	result := o.builder.Build(ctx, spec, rc, sourceDir, legDir)
	leg.Build = result.Status
	if result.Status != model.BuildSuccess {
		leg.Log = result.Log
		if result.Status == model.BuildFailure {
			errutil.Handle(ctx, "leg build failed", goerr.New("build failed",
				goerr.V("triple", spec.Triple), goerr.V("run_id", rc.ID)))
		}
		return finishLeg(&leg, start)
	}

	if o.cache.Enabled() {
		if _, err := o.cache.Persist(ctx, key, result); err != nil {
			logger.Warn("Cache persist failed", "error", err)
		}
	}

	if !spec.Publishable() {
		return finishLeg(&leg, start)
	}

	artifact, err := o.packager.Package(ctx, result, rc)
	if err != nil {
		leg.Package = model.PackageFailure
		leg.Error = err.Error()
		errutil.Handle(ctx, "leg packaging failed", err)
		return finishLeg(&leg, start)
	}
	leg.Package = model.PackageSuccess
	leg.Artifact = artifact.FileName

	if gate {
		leg.Publish = o.publisher.Publish(ctx, artifact, rc)
	}

	return finishLeg(&leg, start)
}

func finishLeg(leg *model.LegReport, start time.Time) model.LegReport {
	leg.Duration = time.Since(start)
	return *leg
}
