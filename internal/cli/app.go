// Package cli implements the pitwall operator commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/okian/pitwall/pkg/logger"
)

// Version is stamped at build time.
var Version = "dev" //nolint:gochecknoglobals // set via -ldflags

// NewApp builds the command tree. Tables go to out, logs to stderr.
func NewApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "pitwall",
		Usage:   "inspect F1 prediction artifacts and verify a running pitwall server",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error", EnvVars: []string{"PITWALL_LOG_LEVEL"}},
		},
		Before: func(c *cli.Context) error {
			if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return logger.SetLevelString(c.String("log-level"))
		},
		Commands: []*cli.Command{
			metricsCommand(),
			projectCommand(),
			errorsCommand(),
			checkCommand(),
		},
	}
}
