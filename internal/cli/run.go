// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/rhi"
)

func (c *CLI) runCommand() *cobra.Command {
	var (
		frames   int
		backends []string
		capture  string
		target   string
	)
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a pipeline through the render backend",
		Long: `Initialize the render backend from the configuration, then execute the
pipeline and submit one frame per iteration. When run.resize_at is set the
resolution changes before that frame and the graph is rebuilt, which hits
the compiled-order cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if cmd.Flags().Changed("frames") {
				cfg.Run.Frames = frames
			}
			if cmd.Flags().Changed("backend") {
				cfg.RHI.Backends = backends
			}
			if cmd.Flags().Changed("capture") {
				cfg.Run.Capture = capture
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			c.cfg = cfg
			return c.run(cmd, args[0], target)
		},
	}
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "number of frames (overrides run.frames)")
	cmd.Flags().StringSliceVarP(&backends, "backend", "b", nil, "acceptable backends (overrides rhi.backends)")
	cmd.Flags().StringVar(&capture, "capture", "", "write the last frame to this PNG file")
	cmd.Flags().StringVar(&target, "target", "", "execute only the named pass and its dependencies")
	return cmd
}

func (c *CLI) run(cmd *cobra.Command, path, target string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := c.cfg

	flags, err := cfg.Flags()
	if err != nil {
		return err
	}
	opts := append(cfg.RHIOptions(),
		rhi.WithLogger(slog.New(c.Logger)),
		// Returning fails the context; the next SubmitFrame ends the run.
		rhi.WithFatalHandler(func(e *rhi.FatalError) {
			c.Logger.Error("render backend fatal error", "error", e)
		}),
	)
	rc, err := rhi.Init(flags, opts...)
	if err != nil {
		return err
	}
	defer rc.Shutdown()

	g, err := c.buildGraph(path, rc.Resolution())
	if err != nil {
		return err
	}
	defer g.Shutdown()

	p := newProgress(c.Logger)
	for i := 1; i <= cfg.Run.Frames; i++ {
		if i == cfg.Run.ResizeAt {
			if err := c.resize(g, rc, path, cfg.Run.ResizeWidth, cfg.Run.ResizeHeight); err != nil {
				return err
			}
		}
		if target != "" {
			err = g.ExecuteTarget(ctx, target, rc)
		} else {
			err = g.Execute(ctx, rc)
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if err := rc.SubmitFrame(ctx); err != nil {
			return err
		}
	}
	p.done("frames submitted", "backend", rc.Kind().String(), "frames", cfg.Run.Frames)

	if cfg.Run.Capture != "" && cfg.Run.Frames > 0 {
		if err := writeCapture(rc, cfg.Run.Capture); err != nil {
			return err
		}
		c.Logger.Info("frame captured", "path", cfg.Run.Capture)
	}

	printRunStats(cmd, rc, g)
	return nil
}

// resize changes the target resolution and rebuilds the graph, since pass
// geometry may depend on it.
func (c *CLI) resize(g *framegraph.Graph, rc *rhi.Context, path string, width, height int) error {
	if err := rc.SetResolution(width, height); err != nil {
		return err
	}
	desc, err := pipeline.ParseFile(path, rc.Resolution())
	if err != nil {
		return err
	}
	if err := g.Clear(); err != nil {
		return err
	}
	if err := pipeline.Build(g, desc); err != nil {
		return err
	}
	if err := g.Compile(); err != nil {
		return err
	}
	c.Logger.Debug("graph rebuilt", "resolution", rc.Resolution().String())
	return nil
}

func writeCapture(rc *rhi.Context, path string) error {
	img, err := rc.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func printRunStats(cmd *cobra.Command, rc *rhi.Context, g *framegraph.Graph) {
	st := g.Stats()
	cs := g.OrderCacheStats()
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, styleTitle.Render("run"))
	printer.Fprintf(w, "backend     %s at %s\n", rc.Kind(), rc.Resolution())
	printer.Fprintf(w, "frames      %d\n", rc.Frame().Number)
	printer.Fprintf(w, "executions  %d\n", st.Executions)
	printer.Fprintf(w, "compiles    %d (%d from cache)\n", st.Compiles+st.CacheHits, st.CacheHits)
	printer.Fprintf(w, "order cache %d/%d entries, %d hits, %d misses\n", cs.Len, cs.Capacity, cs.Hits, cs.Misses)
}
