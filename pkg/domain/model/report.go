package model

import "time"

// RunState is the orchestrator state machine position
type RunState string

const (
	RunPending     RunState = "pending"
	RunExpanding   RunState = "expanding"
	RunRunning     RunState = "running"
	RunAggregating RunState = "aggregating"
	RunDone        RunState = "done"
)

// RunStatus is the aggregate verdict of a run
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// PackageStatus is the Packager outcome for one leg
type PackageStatus string

const (
	PackageNotAttempted PackageStatus = "not-attempted"
	PackageSuccess      PackageStatus = "success"
	PackageFailure      PackageStatus = "failure"
)

// LegReport is one row of the per-leg table
type LegReport struct {
	Target   TargetSpec    `json:"target" yaml:"target"`
	Build    BuildStatus   `json:"build" yaml:"build"`
	Package  PackageStatus `json:"package" yaml:"package"`
	Publish  PublishResult `json:"publish" yaml:"publish"`
	Artifact string        `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	CacheHit bool          `json:"cache_hit" yaml:"cache_hit"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	// Log is kept for failed builds only
	Log string `json:"log,omitempty" yaml:"log,omitempty"`
}

// Failed reports whether the leg breaks the build verdict. Publish outcomes never do.
func (l LegReport) Failed() bool {
	return l.Build != BuildSuccess || l.Package == PackageFailure
}

// RunReport is the terminal record of a run
type RunReport struct {
	Run        RunContext  `json:"run" yaml:"run"`
	State      RunState    `json:"state" yaml:"state"`
	Status     RunStatus   `json:"status" yaml:"status"`
	Gate       bool        `json:"gate" yaml:"gate"`
	Legs       []LegReport `json:"legs" yaml:"legs"`
	StartedAt  time.Time   `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time   `json:"finished_at" yaml:"finished_at"`
}

// FailedLegs returns the legs that broke the build verdict
func (r *RunReport) FailedLegs() []LegReport {
	var failed []LegReport
	for _, leg := range r.Legs {
		if leg.Failed() {
			failed = append(failed, leg)
		}
	}
	return failed
}

// PublishFailures returns the legs whose upload failed
func (r *RunReport) PublishFailures() []LegReport {
	var failed []LegReport
	for _, leg := range r.Legs {
		if leg.Publish.Status == PublishFailure {
			failed = append(failed, leg)
		}
	}
	return failed
}
