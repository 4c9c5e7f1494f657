// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type graphMetrics struct {
	executions  metric.Int64Counter
	compiles    metric.Int64Counter
	compileTime metric.Float64Histogram
}

func newGraphMetrics(m metric.Meter, logger *slog.Logger) graphMetrics {
	var (
		gm  graphMetrics
		err error
	)
	gm.executions, err = m.Int64Counter("framegraph.executions",
		metric.WithDescription("Number of graph executions."))
	if err != nil {
		logger.Warn("framegraph: metric unavailable", "metric", "framegraph.executions", "error", err)
		gm.executions = noop.Int64Counter{}
	}
	gm.compiles, err = m.Int64Counter("framegraph.compiles",
		metric.WithDescription("Number of graph compilations, by order cache result."))
	if err != nil {
		logger.Warn("framegraph: metric unavailable", "metric", "framegraph.compiles", "error", err)
		gm.compiles = noop.Int64Counter{}
	}
	gm.compileTime, err = m.Float64Histogram("framegraph.compile.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Time spent resolving and sorting the graph."))
	if err != nil {
		logger.Warn("framegraph: metric unavailable", "metric", "framegraph.compile.duration", "error", err)
		gm.compileTime = noop.Float64Histogram{}
	}
	return gm
}
