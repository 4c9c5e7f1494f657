// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/gogpu/framegraph"

// DefaultOrderCacheSize is the number of compiled orders a graph keeps by
// default.
const DefaultOrderCacheSize = 16

// Option configures a Graph during creation.
//
// Example:
//
//	g := framegraph.New(
//	    framegraph.WithLogger(logger),
//	    framegraph.WithOrderCacheSize(4),
//	)
type Option func(*options)

type options struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	meter     metric.Meter
	cacheSize int
}

func defaultOptions() options {
	return options{
		cacheSize: DefaultOrderCacheSize,
	}
}

// WithLogger sets a logger for this graph only. Without it the graph logs
// through the package logger (see SetLogger).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer sets the tracer used for frame and node spans. The default is
// the tracer of the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithMeter sets the meter used for execution and compile metrics. The
// default is the meter of the global OpenTelemetry provider.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		o.meter = m
	}
}

// WithOrderCacheSize sets how many compiled orders are remembered by
// topology. Zero disables the cache.
func WithOrderCacheSize(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.cacheSize = n
	}
}

func (o *options) resolve() {
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}
	if o.meter == nil {
		o.meter = otel.Meter(instrumentationName)
	}
}
