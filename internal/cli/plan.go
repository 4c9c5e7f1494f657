// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) planCommand() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "plan FILE",
		Short: "Compile a pipeline file and print its execution order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newProgress(c.Logger)
			g, err := c.buildGraph(args[0], c.cfg.Resolution())
			if err != nil {
				return err
			}
			defer g.Shutdown()
			p.done("compiled", "file", args[0])

			w := cmd.OutOrStdout()
			printPlan(w, args[0], g)
			if target == "" {
				return nil
			}

			deps, err := g.Dependencies(target)
			if err != nil {
				return err
			}
			names := make([]string, len(deps))
			for i, idx := range deps {
				names[i] = g.Node(idx).Name()
			}
			if len(names) == 0 {
				fmt.Fprintf(w, "%s has no dependencies\n", styleNode.Render(target))
				return nil
			}
			fmt.Fprintf(w, "%s depends on %s\n", styleNode.Render(target), styleResource.Render(strings.Join(names, ", ")))
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "also list the passes the named pass depends on")
	return cmd
}
