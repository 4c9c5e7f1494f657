// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the fgctl engine configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/rhi"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the engine configuration.
type Config struct {
	Graph Graph `toml:"graph"`
	RHI   RHI   `toml:"rhi"`
	Run   Run   `toml:"run"`
}

// Graph configures the frame graph.
type Graph struct {
	// OrderCacheSize is the number of compiled orders kept; 0 disables the
	// cache.
	OrderCacheSize int `toml:"order_cache_size"`
}

// RHI configures the render backend.
type RHI struct {
	// Backends lists acceptable backends; the first available in the order
	// webgpu, software, null is used.
	Backends    []string `toml:"backends"`
	Width       int      `toml:"width"`
	Height      int      `toml:"height"`
	RenderScale float64  `toml:"render_scale"`
	Debug       bool     `toml:"debug"`
}

// Run configures `fgctl run`.
type Run struct {
	Frames int `toml:"frames"`
	// ResizeAt is the frame before which the resolution changes to
	// ResizeWidth x ResizeHeight. Zero disables the resize.
	ResizeAt     int `toml:"resize_at"`
	ResizeWidth  int `toml:"resize_width"`
	ResizeHeight int `toml:"resize_height"`
	// Capture is a PNG path the last frame is written to.
	Capture string `toml:"capture"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Graph: Graph{OrderCacheSize: framegraph.DefaultOrderCacheSize},
		RHI: RHI{
			Backends:    []string{"software", "null"},
			Width:       640,
			Height:      360,
			RenderScale: 1,
		},
		Run: Run{Frames: 3},
	}
}

// Load reads the TOML file at path over the defaults. An empty path
// returns the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config: %w", err)
		}
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges and backend names.
func (c Config) Validate() error {
	var errs []error
	if c.Graph.OrderCacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: graph.order_cache_size %d", ErrInvalid, c.Graph.OrderCacheSize))
	}
	if _, err := c.Flags(); err != nil {
		errs = append(errs, fmt.Errorf("%w: rhi.backends: %w", ErrInvalid, err))
	}
	if c.RHI.Width <= 0 || c.RHI.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: rhi resolution %dx%d", ErrInvalid, c.RHI.Width, c.RHI.Height))
	}
	if c.RHI.RenderScale <= 0 || c.RHI.RenderScale > 1 {
		errs = append(errs, fmt.Errorf("%w: rhi.render_scale %g not in (0, 1]", ErrInvalid, c.RHI.RenderScale))
	}
	if c.Run.Frames < 0 {
		errs = append(errs, fmt.Errorf("%w: run.frames %d", ErrInvalid, c.Run.Frames))
	}
	if c.Run.ResizeAt > 0 && (c.Run.ResizeWidth <= 0 || c.Run.ResizeHeight <= 0) {
		errs = append(errs, fmt.Errorf("%w: run resize to %dx%d", ErrInvalid, c.Run.ResizeWidth, c.Run.ResizeHeight))
	}
	return errors.Join(errs...)
}

// Flags returns the backend selection bitmask.
func (c Config) Flags() (rhi.Flags, error) {
	f, err := rhi.ParseFlags(c.RHI.Backends)
	if err != nil {
		return rhi.FlagNone, err
	}
	if f == rhi.FlagNone {
		return f, rhi.ErrNoBackend
	}
	return f, nil
}

// Resolution returns the initial target resolution.
func (c Config) Resolution() rhi.Resolution {
	return rhi.Resolution{Width: c.RHI.Width, Height: c.RHI.Height}
}

// GraphOptions returns the frame graph options the configuration selects.
func (c Config) GraphOptions() []framegraph.Option {
	return []framegraph.Option{framegraph.WithOrderCacheSize(c.Graph.OrderCacheSize)}
}

// RHIOptions returns the context options the configuration selects.
func (c Config) RHIOptions() []rhi.Option {
	return []rhi.Option{
		rhi.WithResolution(c.RHI.Width, c.RHI.Height),
		rhi.WithRenderScale(c.RHI.RenderScale),
		rhi.WithDebug(c.RHI.Debug),
	}
}
