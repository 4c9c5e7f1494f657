// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cli implements the fgctl command-line interface.
//
// Commands:
//   - plan: compile a pipeline file and print the execution order
//   - run: drive a pipeline through the render backend for a number of frames
//   - graph: export the compiled graph as DOT, SVG or PNG
//
// All commands accept --config (a TOML engine configuration) and --verbose.
// Library logging from framegraph, rhi and wgpu is routed to the CLI
// logger.
package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/internal/config"
	_ "github.com/gogpu/framegraph/rhi/webgpu"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Version is reported by --version.
var Version = "dev"

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fgctl",
		Short:         "fgctl compiles and runs frame graph pipelines",
		Long:          `fgctl loads declarative render pass descriptions, compiles them into a frame graph and drives them through a render backend.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			framegraph.SetLogger(slog.New(c.Logger))

			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			if c.configPath != "" {
				c.Logger.Debug("config loaded", "path", c.configPath)
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "engine configuration file (TOML)")

	root.AddCommand(c.planCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.graphCommand())
	return root
}
