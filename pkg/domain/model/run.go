package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// EventKind is the kind of event that triggered a run
type EventKind string

const (
	EventPushBranch  EventKind = "push-branch"
	EventPushTag     EventKind = "push-tag"
	EventPullRequest EventKind = "pull-request"
)

// ParseEventKind converts an event kind name into EventKind
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case EventPushBranch, EventPushTag, EventPullRequest:
		return EventKind(s), nil
	}
	return "", goerr.New("unknown event kind", goerr.V("event", s), goerr.T(ErrTagInvalidInput))
}

// ParseRef classifies a git ref. Fully qualified refs decide the event kind;
// a bare name is treated as a branch.
func ParseRef(ref string) (EventKind, string) {
	switch {
	case strings.HasPrefix(ref, "refs/tags/"):
		return EventPushTag, strings.TrimPrefix(ref, "refs/tags/")
	case strings.HasPrefix(ref, "refs/heads/"):
		return EventPushBranch, strings.TrimPrefix(ref, "refs/heads/")
	case strings.HasPrefix(ref, "refs/pull/"):
		return EventPullRequest, strings.TrimPrefix(ref, "refs/")
	}
	return EventPushBranch, ref
}

// RunContext is the read-only state of one orchestration run
type RunContext struct {
	ID         string    `json:"id" yaml:"id"`
	EventKind  EventKind `json:"event_kind" yaml:"event_kind"`
	Ref        string    `json:"ref" yaml:"ref"`
	Channel    Channel   `json:"channel" yaml:"channel"`
	CrateName  string    `json:"crate_name" yaml:"crate_name"`
	VersionTag string    `json:"version_tag,omitempty" yaml:"version_tag,omitempty"`
	HostClass  HostClass `json:"host_class" yaml:"host_class"`
	CommitSHA  string    `json:"commit_sha,omitempty" yaml:"commit_sha,omitempty"`
}

// NewRunContext builds a RunContext. ref may be fully qualified or a short name;
// the version tag is only set for tag-triggered runs.
func NewRunContext(kind EventKind, ref string, channel Channel, crateName string, host HostClass) RunContext {
	_, name := ParseRef(ref)
	rc := RunContext{
		ID:        uuid.NewString(),
		EventKind: kind,
		Ref:       name,
		Channel:   channel,
		CrateName: crateName,
		HostClass: host,
	}
	if kind == EventPushTag {
		rc.VersionTag = name
	}
	return rc
}

// Validate checks that the context carries everything a run needs
func (rc RunContext) Validate() error {
	// The ID names the run's work directory
	if rc.ID == "" || rc.ID == "." || rc.ID == ".." || strings.ContainsAny(rc.ID, `/\`) {
		return goerr.New("invalid run id", goerr.V("id", rc.ID), goerr.T(ErrTagInvalidInput))
	}
	if rc.CrateName == "" {
		return goerr.New("crate name is required", goerr.T(ErrTagInvalidInput))
	}
	if _, err := ParseEventKind(string(rc.EventKind)); err != nil {
		return err
	}
	if _, err := ParseChannel(string(rc.Channel)); err != nil {
		return err
	}
	if _, err := ParseHostClass(string(rc.HostClass)); err != nil {
		return err
	}
	return nil
}

// ArchiveVersion is the version component of archive names. Non-tag runs use the
// ref with path separators flattened.
func (rc RunContext) ArchiveVersion() string {
	if rc.VersionTag != "" {
		return rc.VersionTag
	}
	if rc.Ref == "" {
		return "snapshot"
	}
	return strings.ReplaceAll(rc.Ref, "/", "-")
}
