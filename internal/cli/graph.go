// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/rhi"
	"github.com/gogpu/framegraph/viz"
)

// buildGraph parses the pipeline file at path for res and returns its
// compiled graph.
func (c *CLI) buildGraph(path string, res rhi.Resolution) (*framegraph.Graph, error) {
	desc, err := pipeline.ParseFile(path, res)
	if err != nil {
		return nil, err
	}
	g := framegraph.New(c.cfg.GraphOptions()...)
	if err := pipeline.Build(g, desc); err != nil {
		g.Shutdown()
		return nil, err
	}
	if err := g.Compile(); err != nil {
		g.Shutdown()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		detailed bool
		rankdir  string
	)
	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Export the compiled graph as DOT, SVG or PNG",
		Long: `Compile a pipeline file and export it through Graphviz. The output
format follows the extension of --output (.dot, .svg or .png); without
--output DOT source is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.buildGraph(args[0], c.cfg.Resolution())
			if err != nil {
				return err
			}
			defer g.Shutdown()

			dot, err := viz.ToDOT(g, viz.Options{Detailed: detailed, RankDir: rankdir})
			if err != nil {
				return err
			}
			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}

			var data []byte
			switch ext := strings.ToLower(filepath.Ext(output)); ext {
			case ".dot", ".gv":
				data = []byte(dot)
			case ".svg":
				data, err = viz.RenderSVG(cmd.Context(), dot)
			case ".png":
				data, err = viz.RenderPNG(cmd.Context(), dot)
			default:
				return fmt.Errorf("unsupported output format %q", ext)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			c.Logger.Info("graph written", "path", output, "nodes", g.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot, .svg or .png)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "list reads and writes in node labels")
	cmd.Flags().StringVar(&rankdir, "rankdir", "LR", "Graphviz rank direction (LR, TB, ...)")
	return cmd
}
