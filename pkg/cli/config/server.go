package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("CONVOY_ADDR"),
		},
		&cli.DurationFlag{
			Name:        "shutdown-timeout",
			Usage:       "How long to wait for in-flight runs on shutdown",
			Value:       30 * time.Minute,
			Destination: &c.ShutdownTimeout,
			Sources:     cli.EnvVars("CONVOY_SHUTDOWN_TIMEOUT"),
		},
	}
}
