package config

import (
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/convoy/pkg/domain/model"
)

// Report holds run report output configuration
type Report struct {
	Path   string
	Format string
}

// Flags returns CLI flags for report configuration
func (c *Report) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "report",
			Usage:       "Write the run report to this file",
			Destination: &c.Path,
			Sources:     cli.EnvVars("CONVOY_REPORT"),
		},
		&cli.StringFlag{
			Name:        "report-format",
			Usage:       "Run report format (json, yaml)",
			Value:       "json",
			Destination: &c.Format,
			Sources:     cli.EnvVars("CONVOY_REPORT_FORMAT"),
		},
	}
}

// Write stores report at Path. Nothing is written when Path is empty.
func (c *Report) Write(report *model.RunReport) error {
	if c.Path == "" {
		return nil
	}

	var (
		data []byte
		err  error
	)
	switch c.Format {
	case "json":
		data, err = json.MarshalIndent(report, "", "  ")
	case "yaml":
		data, err = yaml.Marshal(report)
	default:
		return goerr.New("unknown report format", goerr.V("format", c.Format), goerr.T(model.ErrTagInvalidInput))
	}
	if err != nil {
		return goerr.Wrap(err, "failed to encode run report", goerr.V("format", c.Format))
	}

	if err := os.WriteFile(c.Path, data, 0644); err != nil {
		return goerr.Wrap(err, "failed to write run report", goerr.V("path", c.Path))
	}
	return nil
}
