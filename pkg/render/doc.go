// Package render draws pangenome graphs as node-link diagrams.
//
// # Overview
//
// [ToDOT] converts a [pangraph.Graph] to Graphviz DOT source. Nodes are gene
// families labelled by id, with their genome count underneath; edges are
// adjacencies whose pen width grows with the number of supporting genomes.
// Families flagged as paralogs are drawn dashed.
//
// [RenderSVG] lays the DOT source out in-process with
// [github.com/goccy/go-graphviz]. [ToPDF] and [ToPNG] convert the SVG with the
// external rsvg-convert tool from librsvg.
//
// # Usage
//
//	dot := render.ToDOT(g, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//	png, err := render.ToPNG(svg, 2.0)
//
// Large graphs render slowly with the default layout; [Options.MaxNodes]
// keeps only the most widely shared families.
package render
