// Package registry holds the compiled-in table of release matrix legs.
package registry

import (
	_ "embed"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

//go:embed targets.toml
var targetsTOML []byte

type entry struct {
	Triple  string `toml:"triple"`
	Host    string `toml:"host"`
	Channel string `toml:"channel"`
	Vendor  string `toml:"vendor"`
}

type document struct {
	Target []entry `toml:"target"`
}

var targets = mustParse(targetsTOML)

// All returns every leg in declaration order. The returned slice is a copy.
func All() []model.TargetSpec {
	return slices.Clone(targets)
}

// ForHost returns the legs runnable on host under channel, in declaration order
func ForHost(host model.HostClass, channel model.Channel) []model.TargetSpec {
	var out []model.TargetSpec
	for _, t := range targets {
		if t.RunsOn(host, channel) {
			out = append(out, t)
		}
	}
	return out
}

// Parse decodes and validates a registry document
func Parse(data []byte) ([]model.TargetSpec, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode target registry")
	}

	seen := make(map[string]struct{}, len(doc.Target))
	specs := make([]model.TargetSpec, 0, len(doc.Target))
	for i, e := range doc.Target {
		if e.Triple == "" {
			return nil, goerr.New("target triple is empty", goerr.V("index", i))
		}
		if _, ok := seen[e.Triple]; ok {
			return nil, goerr.New("duplicated target triple", goerr.V("triple", e.Triple))
		}
		seen[e.Triple] = struct{}{}

		host, err := model.ParseHostClass(e.Host)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid target", goerr.V("triple", e.Triple))
		}
		channel, err := model.ParseChannel(e.Channel)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid target", goerr.V("triple", e.Triple))
		}

		specs = append(specs, model.TargetSpec{
			Triple:    e.Triple,
			HostClass: host,
			Channel:   channel,
			VendorTag: e.Vendor,
		})
	}

	return specs, nil
}

func mustParse(data []byte) []model.TargetSpec {
	specs, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return specs
}
