// Package framegraph schedules the render passes of a frame.
//
// # Overview
//
// A Graph tracks named GPU resources and the nodes (render passes) that
// read and write them. Nodes declare their reads and writes up front;
// Compile turns the declarations into a deterministic execution order, and
// Execute runs every node once per frame in that order. Submission of the
// recorded work to a device lives in the rhi sub-package.
//
// # Quick Start
//
//	g := framegraph.New()
//
//	shadow, _ := g.AddNode("shadow", drawShadows)
//	scene, _ := g.AddNode("scene", drawScene)
//	present, _ := g.AddNode("present", blit)
//
//	g.DeclareWrite(shadow, "shadow_map")
//	g.DeclareRead(scene, "shadow_map")
//	g.DeclareWrite(scene, "color")
//	g.DeclareRead(present, "color")
//
//	if err := g.Compile(); err != nil {
//	    return err
//	}
//	for running {
//	    if err := g.Execute(ctx, rhiCtx); err != nil {
//	        return err
//	    }
//	    rhiCtx.SubmitFrame(ctx)
//	}
//
// # Ordering
//
// A read binds to the last write of the same resource declared before it.
// Writers run before their readers; among nodes that are free to run, the
// one registered first runs first. Multiple writers of one resource are
// legal, which is how ping-pong passes are expressed.
//
// Resources written outside of Execute are imported: they satisfy reads
// without a producing node, the way a swap-chain backbuffer does.
//
// # Errors
//
// Topology problems are reported as values: [*UnresolvedReadError],
// [*CycleError] and [ErrSelfDependency] all match their sentinels with
// errors.Is. Executing a graph that is not compiled returns
// [ErrNotCompiled].
//
// # Rebuilding
//
// Any mutation (AddNode, Declare*, Clear, or importing a new resource)
// invalidates the compiled order. Compiled orders are remembered by
// topology, so clearing and rebuilding the same passes after a window
// resize skips the sort.
//
// # Logging
//
// framegraph is silent by default. See [SetLogger].
package framegraph
