// Package render draws serialized object graphs as node-link diagrams.
//
// # Usage
//
// Convert a node tree to DOT, then render it to SVG:
//
//	dot := render.ToDOT(node, render.Options{Values: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Objects become boxes labelled with their identity string, primitives become
// plain text nodes, and back-references are drawn as dashed edges to the
// object they point at, so cycles are visible at a glance.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package render
