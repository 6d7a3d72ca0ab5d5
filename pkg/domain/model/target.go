package model

import (
	"runtime"

	"github.com/m-mizutani/goerr/v2"
)

// HostClass is the operating system family a leg must be built on
type HostClass string

const (
	HostLinux  HostClass = "linux"
	HostDarwin HostClass = "darwin"
)

// ParseHostClass converts a host class name into HostClass
func ParseHostClass(s string) (HostClass, error) {
	switch HostClass(s) {
	case HostLinux, HostDarwin:
		return HostClass(s), nil
	}
	return "", goerr.New("unknown host class", goerr.V("host_class", s), goerr.T(ErrTagInvalidInput))
}

// CurrentHostClass returns the host class of the running process
func CurrentHostClass() (HostClass, error) {
	return ParseHostClass(runtime.GOOS)
}

// Channel is a toolchain stability track
type Channel string

const (
	ChannelStable  Channel = "stable"
	ChannelNightly Channel = "nightly"
)

// ParseChannel converts a channel name into Channel
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelStable, ChannelNightly:
		return Channel(s), nil
	}
	return "", goerr.New("unknown toolchain channel", goerr.V("channel", s), goerr.T(ErrTagInvalidInput))
}

// TargetSpec identifies one matrix leg
type TargetSpec struct {
	Triple    string    `json:"triple" yaml:"triple"`
	HostClass HostClass `json:"host_class" yaml:"host_class"`
	Channel   Channel   `json:"channel" yaml:"channel"`
	VendorTag string    `json:"vendor_tag,omitempty" yaml:"vendor_tag,omitempty"`
}

// Publishable reports whether the leg may be packaged and released.
// Vendor-tagged legs are conformance checks only.
func (t TargetSpec) Publishable() bool {
	return t.VendorTag == ""
}

// RunsOn reports whether the leg can be scheduled for the given host and channel under test.
// Stable legs build on any channel; vendor legs only run on their declared channel.
func (t TargetSpec) RunsOn(host HostClass, channel Channel) bool {
	if t.HostClass != host {
		return false
	}
	if !t.Publishable() && t.Channel != channel {
		return false
	}
	return true
}
