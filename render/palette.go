package render

import (
	"fmt"

	"vispath/color"
	"vispath/graph"
)

// Palette holds the normalized colors every renderer draws with.
type Palette struct {
	Source       color.Normalized
	Intermediate color.Normalized
	Target       color.Normalized
	Link         color.Normalized
}

func NewPalette(source, intermediate, target, link string) (Palette, error) {
	var p Palette
	specs := []struct {
		name string
		spec string
		dst  *color.Normalized
	}{
		{"source", source, &p.Source},
		{"intermediate", intermediate, &p.Intermediate},
		{"target", target, &p.Target},
		{"link", link, &p.Link},
	}
	for _, s := range specs {
		n, err := color.Normalize(s.spec)
		if err != nil {
			return Palette{}, fmt.Errorf("%s color: %w", s.name, err)
		}
		*s.dst = n
	}
	return p, nil
}

func (p Palette) ForRole(role graph.Role) color.Normalized {
	switch role {
	case graph.RoleSource:
		return p.Source
	case graph.RoleTarget:
		return p.Target
	default:
		return p.Intermediate
	}
}

// css gives the single-string form browsers accept: the plain hex when
// opaque, rgba() otherwise.
func css(n color.Normalized) string {
	if n.Opacity >= 1 {
		return n.Hex
	}
	return n.RGBA()
}

type Options struct {
	Title          string
	EdgeWidthScale string
	MinEdgeWidth   float64
	MaxEdgeWidth   float64
	Width          int
	Height         int
}

func (o Options) withDefaults() Options {
	if o.EdgeWidthScale == "" {
		o.EdgeWidthScale = "sqrt"
	}
	if o.MinEdgeWidth <= 0 {
		o.MinEdgeWidth = 1
	}
	if o.MaxEdgeWidth <= 0 {
		o.MaxEdgeWidth = 30
	}
	if o.MaxEdgeWidth < o.MinEdgeWidth {
		o.MaxEdgeWidth = o.MinEdgeWidth
	}
	if o.Width <= 0 {
		o.Width = 1400
	}
	if o.Height <= 0 {
		o.Height = 900
	}
	return o
}
