package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"

	"vispath/graph"
	"vispath/layout"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("").Funcs(sprig.FuncMap()).ParseFS(templateFS, "templates/*.tmpl"),
)

type sankeyNode struct {
	Label []string `json:"label"`
	Color []string `json:"color"`
	Pad   int      `json:"pad"`
	Thick int      `json:"thickness"`
}

type sankeyLink struct {
	Source []int64   `json:"source"`
	Target []int64   `json:"target"`
	Value  []float64 `json:"value"`
	Color  []string  `json:"color"`
}

type sankeyTrace struct {
	Type        string     `json:"type"`
	Orientation string     `json:"orientation"`
	Arrangement string     `json:"arrangement"`
	Node        sankeyNode `json:"node"`
	Link        sankeyLink `json:"link"`
}

type pageData struct {
	Title  string
	Data   template.JS
	Legend []legendEntry
	Width  int
	Height int
}

type legendEntry struct {
	Role  string
	Color string
}

// Sankey writes a plotly.js page with one sankey trace. Node colors follow
// the palette role colors and every link uses the link color.
func Sankey(w io.Writer, p *graph.Pathway, palette Palette, opts Options) error {
	opts = opts.withDefaults()
	trace := sankeyTrace{
		Type:        "sankey",
		Orientation: "h",
		Arrangement: "snap",
		Node:        sankeyNode{Label: []string{}, Color: []string{}, Pad: 15, Thick: 20},
		Link:        sankeyLink{Source: []int64{}, Target: []int64{}, Value: []float64{}, Color: []string{}},
	}
	for _, n := range p.Nodes() {
		trace.Node.Label = append(trace.Node.Label, n.Name)
		trace.Node.Color = append(trace.Node.Color, css(palette.ForRole(n.Role)))
	}
	for _, e := range p.Edges() {
		trace.Link.Source = append(trace.Link.Source, e.From)
		trace.Link.Target = append(trace.Link.Target, e.To)
		trace.Link.Value = append(trace.Link.Value, e.Weight)
		trace.Link.Color = append(trace.Link.Color, css(palette.Link))
	}

	data, err := json.Marshal([]sankeyTrace{trace})
	if err != nil {
		return fmt.Errorf("encode sankey data: %w", err)
	}
	return templates.ExecuteTemplate(w, "sankey.html.tmpl", pageData{
		Title:  opts.Title,
		Data:   template.JS(data),
		Legend: legend(palette),
		Width:  opts.Width,
		Height: opts.Height,
	})
}

type visColor struct {
	Background string  `json:"background,omitempty"`
	Border     string  `json:"border,omitempty"`
	Color      string  `json:"color,omitempty"`
	Opacity    float64 `json:"opacity"`
}

type visNode struct {
	ID      int64    `json:"id"`
	Label   string   `json:"label"`
	Title   string   `json:"title"`
	Group   string   `json:"group"`
	Color   visColor `json:"color"`
	Opacity float64  `json:"opacity"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
}

type visEdge struct {
	ID     int64    `json:"id"`
	From   int64    `json:"from"`
	To     int64    `json:"to"`
	Title  string   `json:"title"`
	Width  float64  `json:"width"`
	Color  visColor `json:"color"`
	Arrows string   `json:"arrows"`
}

type network struct {
	Nodes   []visNode `json:"nodes"`
	Edges   []visEdge `json:"edges"`
	Physics bool      `json:"physics"`
}

// Network writes a vis-network page. Nodes start at pos scaled to the page
// size; edge widths follow layout.EdgeWidth.
func Network(w io.Writer, p *graph.Pathway, pos layout.Positions, palette Palette, physics bool, opts Options) error {
	opts = opts.withDefaults()
	nw := network{Nodes: []visNode{}, Edges: []visEdge{}, Physics: physics}

	for _, n := range p.Nodes() {
		c := palette.ForRole(n.Role)
		pt := pos[n.ID]
		nw.Nodes = append(nw.Nodes, visNode{
			ID:    n.ID,
			Label: n.Name,
			Title: fmt.Sprintf("%s (%s)\nlayer %d\nin: %d (%g)\nout: %d (%g)",
				n.Name, n.Role, n.Layer, n.InDegree, n.InWeight, n.OutDegree, n.OutWeight),
			Group:   string(n.Role),
			Color:   visColor{Background: c.Hex, Border: c.Hex, Opacity: c.Opacity},
			Opacity: c.Opacity,
			X:       pt.X * float64(opts.Width),
			Y:       pt.Y * float64(opts.Height),
		})
	}

	maxWeight := p.MaxWeight()
	for i, e := range p.Edges() {
		nw.Edges = append(nw.Edges, visEdge{
			ID:     int64(i),
			From:   e.From,
			To:     e.To,
			Title:  fmt.Sprintf("%s → %s: %g", e.Pre, e.Post, e.Weight),
			Width:  layout.EdgeWidth(e.Weight, maxWeight, opts.EdgeWidthScale, opts.MinEdgeWidth, opts.MaxEdgeWidth),
			Color:  visColor{Color: palette.Link.Hex, Opacity: palette.Link.Opacity},
			Arrows: "to",
		})
	}

	data, err := json.Marshal(nw)
	if err != nil {
		return fmt.Errorf("encode network data: %w", err)
	}
	return templates.ExecuteTemplate(w, "network.html.tmpl", pageData{
		Title:  opts.Title,
		Data:   template.JS(data),
		Legend: legend(palette),
		Width:  opts.Width,
		Height: opts.Height,
	})
}

func legend(palette Palette) []legendEntry {
	return []legendEntry{
		{Role: string(graph.RoleSource), Color: palette.Source.Hex},
		{Role: string(graph.RoleIntermediate), Color: palette.Intermediate.Hex},
		{Role: string(graph.RoleTarget), Color: palette.Target.Hex},
	}
}
