package layout

import (
	"math"
	"sort"

	"vispath/graph"
	"vispath/rect"
)

const (
	Hierarchical = "hierarchical"
	Spring       = "spring"
	Circular     = "circular"
	Distributed  = "distributed"
)

var KINDS = []string{Hierarchical, Spring, Circular, Distributed}

type Point struct {
	X, Y float64
}

type Positions map[int64]Point

// Options tunes the spring layout. Zero values are replaced by Params.
type Options struct {
	K          float64
	Iterations int
}

// Params picks spring parameters from the node count: the ideal edge length
// shrinks with 1/sqrt(n) and bigger graphs get more iterations, capped at 500.
func Params(n int) Options {
	if n <= 0 {
		return Options{K: 1, Iterations: 50}
	}
	return Options{
		K:          1 / math.Sqrt(float64(n)),
		Iterations: min(50+2*n, 500),
	}
}

// Compute lays out p inside the unit square.
func Compute(p *graph.Pathway, kind string, opts Options) Positions {
	switch kind {
	case Circular:
		return circular(p)
	case Spring:
		return spring(p, opts)
	case Distributed:
		return distributed(p)
	default:
		return hierarchical(p)
	}
}

func hierarchical(p *graph.Pathway) Positions {
	pos := Positions{}
	byLayer := map[int][]graph.NodeInfo{}
	for _, n := range p.Nodes() {
		byLayer[n.Layer] = append(byLayer[n.Layer], n)
	}
	maxLayer := p.MaxLayer()
	for layer, nodes := range byLayer {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
		x := 0.5
		if maxLayer > 0 {
			x = float64(layer) / float64(maxLayer)
		}
		for i, n := range nodes {
			pos[n.ID] = Point{X: x, Y: spread(i, len(nodes))}
		}
	}
	return pos
}

func circular(p *graph.Pathway) Positions {
	pos := Positions{}
	n := p.NumNodes()
	for i := 0; i < n; i++ {
		if n == 1 {
			pos[0] = Point{0.5, 0.5}
			break
		}
		angle := 2 * math.Pi * float64(i) / float64(n)
		pos[int64(i)] = Point{
			X: 0.5 + 0.5*math.Cos(angle),
			Y: 0.5 + 0.5*math.Sin(angle),
		}
	}
	return pos
}

func distributed(p *graph.Pathway) Positions {
	nodes := p.Nodes()
	rank := map[graph.Role]int{graph.RoleSource: 0, graph.RoleIntermediate: 1, graph.RoleTarget: 2}
	sort.SliceStable(nodes, func(i, j int) bool {
		return rank[nodes[i].Role] < rank[nodes[j].Role]
	})

	pos := Positions{}
	if len(nodes) == 0 {
		return pos
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	rows := (len(nodes) + cols - 1) / cols
	for i, n := range nodes {
		pos[n.ID] = Point{X: spread(i%cols, cols), Y: spread(i/cols, rows)}
	}
	return pos
}

// spring runs a Fruchterman-Reingold simulation seeded from the circular
// layout, so the result is deterministic for a given graph.
func spring(p *graph.Pathway, opts Options) Positions {
	n := p.NumNodes()
	defaults := Params(n)
	if opts.K <= 0 {
		opts.K = defaults.K
	}
	if opts.Iterations <= 0 {
		opts.Iterations = defaults.Iterations
	}

	pos := circular(p)
	if n < 2 {
		return pos
	}
	edges := p.Edges()
	temp := 0.1
	cool := temp / float64(opts.Iterations+1)

	for iter := 0; iter < opts.Iterations; iter++ {
		disp := make([]Point, n)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := pos[int64(i)].X - pos[int64(j)].X
				dy := pos[int64(i)].Y - pos[int64(j)].Y
				d := math.Max(math.Hypot(dx, dy), 1e-6)
				f := opts.K * opts.K / d
				disp[i].X += dx / d * f
				disp[i].Y += dy / d * f
				disp[j].X -= dx / d * f
				disp[j].Y -= dy / d * f
			}
		}
		for _, e := range edges {
			dx := pos[e.From].X - pos[e.To].X
			dy := pos[e.From].Y - pos[e.To].Y
			d := math.Max(math.Hypot(dx, dy), 1e-6)
			f := d * d / opts.K
			disp[e.From].X -= dx / d * f
			disp[e.From].Y -= dy / d * f
			disp[e.To].X += dx / d * f
			disp[e.To].Y += dy / d * f
		}
		for i := 0; i < n; i++ {
			d := math.Max(math.Hypot(disp[i].X, disp[i].Y), 1e-6)
			step := math.Min(d, temp)
			pt := pos[int64(i)]
			pt.X += disp[i].X / d * step
			pt.Y += disp[i].Y / d * step
			pos[int64(i)] = pt
		}
		temp -= cool
	}
	return Normalize(pos)
}

// Normalize rescales positions to fill the unit square.
func Normalize(pos Positions) Positions {
	bounds := Bounds(pos)
	unit := rect.NewRect(0, 0, 1, 1)
	out := make(Positions, len(pos))
	for id, pt := range pos {
		x, y := bounds.MapTo(unit, pt.X, pt.Y)
		out[id] = Point{X: x, Y: y}
	}
	return out
}

func Bounds(pos Positions) *rect.Rect {
	xs := make([]float64, 0, len(pos))
	ys := make([]float64, 0, len(pos))
	for _, pt := range pos {
		xs = append(xs, pt.X)
		ys = append(ys, pt.Y)
	}
	return rect.Around(xs, ys)
}

func spread(i, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return float64(i) / float64(n-1)
}

// EdgeWidth maps weight onto [minWidth, maxWidth] using the named scale
// (linear, sqrt or log) relative to maxWeight.
func EdgeWidth(weight, maxWeight float64, scale string, minWidth, maxWidth float64) float64 {
	if maxWeight <= 0 || weight <= 0 {
		return minWidth
	}
	var frac float64
	switch scale {
	case "linear":
		frac = weight / maxWeight
	case "log":
		frac = math.Log1p(weight) / math.Log1p(maxWeight)
	default:
		frac = math.Sqrt(weight / maxWeight)
	}
	frac = math.Max(0, math.Min(1, frac))
	return minWidth + frac*(maxWidth-minWidth)
}
