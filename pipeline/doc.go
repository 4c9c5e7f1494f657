// Package pipeline builds frame graphs from declarative pass descriptions.
//
// A description is an HCL file of import and pass blocks:
//
//	import "backbuffer" {}
//
//	pass "shadow" {
//	  writes      = ["shadow_map"]
//	  view        = 1
//	  clear       = ["color"]
//	  clear_color = [0, 0, 0, 255]
//
//	  viewport {
//	    x = 0
//	    y = 0
//	    w = floor(width / 4)
//	    h = floor(height / 4)
//	  }
//	}
//
//	pass "scene" {
//	  reads  = ["shadow_map"]
//	  writes = ["hdr"]
//
//	  rect {
//	    x     = 16
//	    y     = 16
//	    w     = 64
//	    h     = 64
//	    color = [200, 40, 40, 255]
//	  }
//	}
//
// Expressions may refer to the width and height variables, the target
// resolution, and call min, max, floor and ceil.
//
// Build registers one node per pass in file order. Each node records its
// view clear and rectangles into the *rhi.Context passed as the execution
// user value, then writes a handle for every resource it declares written.
package pipeline
