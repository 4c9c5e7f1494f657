// Package viz draws compiled frame graphs.
//
// ToDOT writes a graph in Graphviz DOT format: one box per node, labelled
// with its position in the compiled order, and one edge per resolved
// dependency, labelled with the resource it carries. Imported resources
// appear as ellipses feeding their readers. RenderSVG and RenderPNG lay the
// DOT source out with Graphviz.
package viz
