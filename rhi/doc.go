// Package rhi is the backend dispatch layer of the frame graph: it owns
// the device state, selects one backend variant at Init, and turns the
// commands recorded by graph nodes into one device submission per frame.
//
// A Context replaces process-wide device globals. The engine creates it
// once and passes it, usually as the user context of
// framegraph.Graph.Execute, to every node:
//
//	c, err := rhi.Init(rhi.FlagSoftware, rhi.WithResolution(1280, 720))
//	if err != nil {
//	    return err
//	}
//	defer c.Shutdown()
//
//	g.Execute(ctx, c)   // nodes record into c.Frame()
//	c.SubmitFrame(ctx)  // exactly once per frame
//
// # Backends
//
// The variants form a closed set selected by flag bits: webgpu (package
// rhi/webgpu, registered on import), software (CPU rasterizer) and null
// (records frames only). When several bits are set the first available
// kind in that order wins.
//
// # Errors and debug messages
//
// Device messages are classified as notification, warning, error or fatal.
// The first three are logged; errors are also kept as the context error
// (see ErrorMessage). Fatal messages and configuration errors, such as Init
// without any backend bit, run the fatal handler, which panics by default.
package rhi
