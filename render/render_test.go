package render

import (
	"bytes"
	"encoding/json"
	"image/png"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vispath/color"
	"vispath/graph"
	"vispath/layout"
	"vispath/rect"
	"vispath/table"
)

func testPathway(t *testing.T) *graph.Pathway {
	t.Helper()
	p, err := graph.Build([]table.Connection{
		{Pre: "LC10", Post: "LT52", Weight: 10, Layer: -1},
		{Pre: "LT52", Post: "MBON<1>", Weight: 2.5, Layer: -1},
	})
	require.NoError(t, err)
	return p
}

func testPalette(t *testing.T) Palette {
	t.Helper()
	palette, err := NewPalette("#4A90E2", "#50E3C2", "skyblue", "rgba(74,144,226,0.3)")
	require.NoError(t, err)
	return palette
}

var dataRe = regexp.MustCompile(`var (?:data|graph) = (.*);`)

func extractData(t *testing.T, page string, v any) {
	t.Helper()
	m := dataRe.FindStringSubmatch(page)
	require.Len(t, m, 2, "page has no data line")
	require.NoError(t, json.Unmarshal([]byte(m[1]), v))
}

func TestNewPalette(t *testing.T) {
	palette := testPalette(t)
	assert.Equal(t, color.Normalized{Hex: "#4A90E2", Opacity: 0.3}, palette.Link)
	assert.Equal(t, palette.Target, palette.ForRole(graph.RoleTarget))
	assert.Equal(t, palette.Intermediate, palette.ForRole("unknown"))

	_, err := NewPalette("#4A90E2", "rgb(1,2)", "red", "blue")
	require.ErrorIs(t, err, color.ErrMalformedColorSpec)
	assert.Contains(t, err.Error(), "intermediate")
}

func TestSankey(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Sankey(&buf, testPathway(t), testPalette(t), Options{Title: "LC10 paths"}))
	page := buf.String()
	assert.Contains(t, page, "plotly")
	assert.Contains(t, page, "<title>LC10 paths</title>")

	var traces []sankeyTrace
	extractData(t, page, &traces)
	require.Len(t, traces, 1)
	tr := traces[0]
	assert.Equal(t, []string{"LC10", "LT52", "MBON<1>"}, tr.Node.Label)
	assert.Equal(t, []string{"#4A90E2", "#50E3C2", "skyblue"}, tr.Node.Color)
	assert.Equal(t, []int64{0, 1}, tr.Link.Source)
	assert.Equal(t, []int64{1, 2}, tr.Link.Target)
	assert.Equal(t, []float64{10, 2.5}, tr.Link.Value)
	assert.Equal(t, []string{"rgba(74,144,226,0.3)", "rgba(74,144,226,0.3)"}, tr.Link.Color)
	assert.NotContains(t, page, "MBON<1>", "labels must be escaped inside the script")
}

func TestSankeyDefaultTitleAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Sankey(&buf, graph.Empty(), testPalette(t), Options{}))
	assert.Contains(t, buf.String(), "<title>Selected paths</title>")

	var traces []sankeyTrace
	extractData(t, buf.String(), &traces)
	assert.Empty(t, traces[0].Node.Label)
}

func TestNetwork(t *testing.T) {
	p := testPathway(t)
	pos := layout.Compute(p, layout.Hierarchical, layout.Options{})
	var buf bytes.Buffer
	opts := Options{MaxEdgeWidth: 20, MinEdgeWidth: 2, EdgeWidthScale: "linear", Width: 1000, Height: 500}
	require.NoError(t, Network(&buf, p, pos, testPalette(t), false, opts))
	page := buf.String()
	assert.Contains(t, page, "vis-network")
	assert.Contains(t, page, `data-group="source"`)

	var nw network
	extractData(t, page, &nw)
	require.Len(t, nw.Nodes, 3)
	require.Len(t, nw.Edges, 2)
	assert.False(t, nw.Physics)

	assert.Equal(t, "source", nw.Nodes[0].Group)
	assert.Equal(t, "#4A90E2", nw.Nodes[0].Color.Background)
	assert.Equal(t, 1.0, nw.Nodes[0].Opacity)
	assert.Equal(t, 0.0, nw.Nodes[0].X)
	assert.Equal(t, 1000.0, nw.Nodes[2].X)

	assert.Equal(t, 20.0, nw.Edges[0].Width)
	assert.Equal(t, 6.5, nw.Edges[1].Width)
	assert.Equal(t, "#4A90E2", nw.Edges[0].Color.Color)
	assert.Equal(t, 0.3, nw.Edges[0].Color.Opacity)
	assert.Equal(t, "to", nw.Edges[0].Arrows)
}

func TestNetworkPNG(t *testing.T) {
	p := testPathway(t)
	pos := layout.Compute(p, layout.Circular, layout.Options{})
	var buf bytes.Buffer
	require.NoError(t, NetworkPNG(&buf, p, pos, testPalette(t), Options{Width: 400, Height: 300, Title: "paths"}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestNetworkPNGUnknownColor(t *testing.T) {
	palette := testPalette(t)
	palette.Target = color.Normalized{Hex: "not-a-color", Opacity: 1}
	p := testPathway(t)
	err := NetworkPNG(&bytes.Buffer{}, p, layout.Compute(p, layout.Circular, layout.Options{}), palette, Options{})
	assert.Error(t, err)
}

func TestLabelX(t *testing.T) {
	page := rect.NewRect(0, 0, 400, 300)
	tests := []struct {
		x, width, want float64
	}{
		{200, 40, 200},
		{10, 40, 20},
		{395, 40, 380},
		{0, 40, 20},
		{100, 500, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, labelX(page, tt.x, tt.width), "x=%v width=%v", tt.x, tt.width)
	}
}

func TestHeatmap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Heatmap(&buf, testPathway(t), testPalette(t), Options{Title: "LC10 matrix"}))
	page := buf.String()
	assert.Contains(t, page, "<title>LC10 matrix</title>")
	assert.Contains(t, page, `Plotly.newPlot("heatmap"`)

	var traces []heatmapTrace
	extractData(t, page, &traces)
	require.Len(t, traces, 1)
	tr := traces[0]
	assert.Equal(t, "heatmap", tr.Type)
	assert.Equal(t, []string{"LC10", "LT52"}, tr.Y)
	assert.Equal(t, []string{"LT52", "MBON<1>"}, tr.X)
	require.Len(t, tr.Z, 2)
	require.NotNil(t, tr.Z[0][0])
	assert.Equal(t, 10.0, *tr.Z[0][0])
	assert.Nil(t, tr.Z[0][1], "unconnected pairs are gaps")
	assert.Nil(t, tr.Z[1][0])
	require.NotNil(t, tr.Z[1][1])
	assert.Equal(t, 2.5, *tr.Z[1][1])
	assert.Equal(t, "#4A90E2", tr.Colorscale[1][1])
	assert.NotContains(t, page, "MBON<1>")
}

func TestHeatmapEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Heatmap(&buf, graph.Empty(), testPalette(t), Options{}))

	var traces []heatmapTrace
	extractData(t, buf.String(), &traces)
	require.Len(t, traces, 1)
	assert.Empty(t, traces[0].X)
	assert.Empty(t, traces[0].Y)
	assert.Empty(t, traces[0].Z)
}
