package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"vispath/graph"
)

type heatmapTrace struct {
	Type          string        `json:"type"`
	X             []string      `json:"x"`
	Y             []string      `json:"y"`
	Z             [][]*float64  `json:"z"`
	Colorscale    [][2]any      `json:"colorscale"`
	HoverOnGaps   bool          `json:"hoverongaps"`
	HoverTemplate string        `json:"hovertemplate"`
	ColorBar      heatmapColors `json:"colorbar"`
}

type heatmapColors struct {
	Title string `json:"title"`
}

// Heatmap writes a plotly.js page with the connectivity matrix: one row per
// presynaptic node, one column per postsynaptic node, and a gap where two
// nodes are not connected. The scale runs from white to the link color.
func Heatmap(w io.Writer, p *graph.Pathway, palette Palette, opts Options) error {
	opts = opts.withDefaults()

	var rows, cols []graph.NodeInfo
	for _, n := range p.Nodes() {
		if n.OutDegree > 0 {
			rows = append(rows, n)
		}
		if n.InDegree > 0 {
			cols = append(cols, n)
		}
	}
	rowAt := make(map[int64]int, len(rows))
	colAt := make(map[int64]int, len(cols))

	trace := heatmapTrace{
		Type:          "heatmap",
		X:             make([]string, len(cols)),
		Y:             make([]string, len(rows)),
		Z:             make([][]*float64, len(rows)),
		Colorscale:    [][2]any{{0, "#FFFFFF"}, {1, palette.Link.Hex}},
		HoverTemplate: "%{y} → %{x}: %{z}<extra></extra>",
		ColorBar:      heatmapColors{Title: "weight"},
	}
	for i, n := range rows {
		rowAt[n.ID] = i
		trace.Y[i] = n.Name
		trace.Z[i] = make([]*float64, len(cols))
	}
	for j, n := range cols {
		colAt[n.ID] = j
		trace.X[j] = n.Name
	}
	for _, e := range p.Edges() {
		weight := e.Weight
		trace.Z[rowAt[e.From]][colAt[e.To]] = &weight
	}

	data, err := json.Marshal([]heatmapTrace{trace})
	if err != nil {
		return fmt.Errorf("encode heatmap data: %w", err)
	}
	return templates.ExecuteTemplate(w, "heatmap.html.tmpl", pageData{
		Title:  opts.Title,
		Data:   template.JS(data),
		Width:  opts.Width,
		Height: opts.Height,
	})
}
