package render

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"

	"vispath/color"
	"vispath/font"
	"vispath/graph"
	"vispath/layout"
	"vispath/rect"
)

const (
	NODE_RADIUS = 8
	MARGIN      = 60
	LABEL_SIZE  = 11
)

// NetworkPNG rasterizes the network at its layout positions. Colors must
// resolve to concrete channels here, so unknown color names are an error.
func NetworkPNG(w io.Writer, p *graph.Pathway, pos layout.Positions, palette Palette, opts Options) error {
	opts = opts.withDefaults()
	ctx := gg.NewContext(opts.Width, opts.Height)
	ctx.SetRGB(1, 1, 1)
	ctx.Clear()

	page := rect.NewRect(0, 0, float64(opts.Width), float64(opts.Height))
	canvas := page.Clone()
	canvas.Inflate(-MARGIN, -MARGIN)
	unit := rect.NewRect(0, 0, 1, 1)
	at := func(id int64) (float64, float64) {
		pt := pos[id]
		return unit.MapTo(canvas, pt.X, pt.Y)
	}

	if err := setColor(ctx, palette.Link); err != nil {
		return fmt.Errorf("link color: %w", err)
	}
	// raster widths are halved so thick links don't swallow the nodes
	maxWeight := p.MaxWeight()
	for _, e := range p.Edges() {
		x1, y1 := at(e.From)
		x2, y2 := at(e.To)
		ctx.SetLineWidth(layout.EdgeWidth(e.Weight, maxWeight, opts.EdgeWidthScale, opts.MinEdgeWidth, opts.MaxEdgeWidth) / 2)
		ctx.DrawLine(x1, y1, x2, y2)
		ctx.Stroke()
	}

	label := font.GetFont(LABEL_SIZE, "sans")
	ctx.SetFontFace(label.Font)
	for _, n := range p.Nodes() {
		x, y := at(n.ID)
		if err := setColor(ctx, palette.ForRole(n.Role)); err != nil {
			return fmt.Errorf("%s color: %w", n.Role, err)
		}
		ctx.DrawCircle(x, y, NODE_RADIUS)
		ctx.Fill()
		ctx.SetRGB(0.1, 0.1, 0.1)
		lx := labelX(page, x, font.Measure(label.Font, n.Name))
		ctx.DrawStringAnchored(n.Name, lx, y-NODE_RADIUS-2, 0.5, 0)
	}

	if opts.Title != "" {
		ctx.SetRGB(0, 0, 0)
		ctx.DrawStringAnchored(opts.Title, page.Width()/2, font.Linespace(label.Font), 0.5, 0)
	}
	return ctx.EncodePNG(w)
}

func setColor(ctx *gg.Context, n color.Normalized) error {
	c, err := color.Resolve(n.Hex)
	if err != nil {
		return err
	}
	ctx.SetRGBA(c.R, c.G, c.B, n.Opacity)
	return nil
}

// labelX returns the center of a label of the given width placed over x,
// shifted so both ends stay on the page.
func labelX(page *rect.Rect, x, width float64) float64 {
	if width >= page.Width() {
		return page.Left + page.Width()/2
	}
	if !page.ContainsPoint(x-width/2, page.Top) {
		return page.Left + width/2
	}
	if !page.ContainsPoint(x+width/2, page.Top) {
		return page.Right - width/2
	}
	return x
}
