package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"vispath/table"
)

type Role string

const (
	RoleSource       Role = "source"
	RoleIntermediate Role = "intermediate"
	RoleTarget       Role = "target"
)

type NodeInfo struct {
	ID        int64
	Name      string
	Role      Role
	Layer     int
	InDegree  int
	OutDegree int
	InWeight  float64
	OutWeight float64
}

type EdgeInfo struct {
	From, To int64
	Pre      string
	Post     string
	Weight   float64
}

// Pathway is the directed weighted graph of a connection table. Node ids
// follow first appearance in the table.
type Pathway struct {
	g         *simple.WeightedDirectedGraph
	names     []string
	ids       map[string]int64
	layers    []int
	selfLoops []table.Connection
}

func Empty() *Pathway {
	return &Pathway{
		g:   simple.NewWeightedDirectedGraph(0, 0),
		ids: map[string]int64{},
	}
}

func Build(conns []table.Connection) (*Pathway, error) {
	p := Empty()
	explicit := map[int64]int{}

	for _, c := range conns {
		if c.Weight < 0 {
			return nil, fmt.Errorf("connection %s -> %s: negative weight %v", c.Pre, c.Post, c.Weight)
		}
		from := p.node(c.Pre)
		to := p.node(c.Post)
		if c.Layer >= 0 {
			if _, ok := explicit[from]; !ok {
				explicit[from] = c.Layer
			}
			if _, ok := explicit[to]; !ok || explicit[to] < c.Layer+1 {
				explicit[to] = c.Layer + 1
			}
		}
		if from == to {
			p.selfLoops = append(p.selfLoops, c)
			continue
		}
		weight := c.Weight
		if e := p.g.WeightedEdge(from, to); e != nil {
			weight += e.Weight()
		}
		p.g.SetWeightedEdge(p.g.NewWeightedEdge(p.g.Node(from), p.g.Node(to), weight))
	}

	p.layers = p.computeLayers()
	for id, l := range explicit {
		p.layers[id] = l
	}
	return p, nil
}

func (p *Pathway) node(name string) int64 {
	if id, ok := p.ids[name]; ok {
		return id
	}
	id := int64(len(p.names))
	p.g.AddNode(simple.Node(id))
	p.ids[name] = id
	p.names = append(p.names, name)
	return id
}

// computeLayers places every node at its longest distance from a source.
// Cyclic graphs have no such distance, so they fall back to BFS depth.
func (p *Pathway) computeLayers() []int {
	layers := make([]int, len(p.names))
	order, err := topo.Sort(p.g)
	if err != nil {
		return p.bfsLayers()
	}
	for _, n := range order {
		to := p.g.From(n.ID())
		for to.Next() {
			next := to.Node().ID()
			if layers[n.ID()]+1 > layers[next] {
				layers[next] = layers[n.ID()] + 1
			}
		}
	}
	return layers
}

func (p *Pathway) bfsLayers() []int {
	layers := make([]int, len(p.names))
	for i := range layers {
		layers[i] = -1
	}
	queue := []int64{}
	for id := range p.names {
		if p.g.To(int64(id)).Len() == 0 {
			layers[id] = 0
			queue = append(queue, int64(id))
		}
	}
	// a pure cycle has no source; start from the first node
	if len(queue) == 0 && len(p.names) > 0 {
		layers[0] = 0
		queue = append(queue, 0)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		to := p.g.From(cur)
		for to.Next() {
			next := to.Node().ID()
			if layers[next] < 0 {
				layers[next] = layers[cur] + 1
				queue = append(queue, next)
			}
		}
	}
	for i, l := range layers {
		if l < 0 {
			layers[i] = 0
		}
	}
	return layers
}

func (p *Pathway) NumNodes() int {
	return len(p.names)
}

func (p *Pathway) NumEdges() int {
	return p.g.Edges().Len()
}

func (p *Pathway) SelfLoops() []table.Connection {
	return p.selfLoops
}

func (p *Pathway) Name(id int64) string {
	return p.names[id]
}

func (p *Pathway) ID(name string) (int64, bool) {
	id, ok := p.ids[name]
	return id, ok
}

func (p *Pathway) Role(id int64) Role {
	in := p.g.To(id).Len()
	out := p.g.From(id).Len()
	switch {
	case in == 0 && out > 0:
		return RoleSource
	case out == 0 && in > 0:
		return RoleTarget
	default:
		return RoleIntermediate
	}
}

func (p *Pathway) Layer(id int64) int {
	return p.layers[id]
}

func (p *Pathway) MaxLayer() int {
	maxLayer := 0
	for _, l := range p.layers {
		maxLayer = max(maxLayer, l)
	}
	return maxLayer
}

func (p *Pathway) Nodes() []NodeInfo {
	nodes := make([]NodeInfo, len(p.names))
	for i, name := range p.names {
		id := int64(i)
		info := NodeInfo{ID: id, Name: name, Role: p.Role(id), Layer: p.layers[id]}
		from := p.g.From(id)
		for from.Next() {
			info.OutDegree++
			info.OutWeight += p.g.WeightedEdge(id, from.Node().ID()).Weight()
		}
		to := p.g.To(id)
		for to.Next() {
			info.InDegree++
			info.InWeight += p.g.WeightedEdge(to.Node().ID(), id).Weight()
		}
		nodes[i] = info
	}
	return nodes
}

// Edges returns every edge ordered by source id then target id.
func (p *Pathway) Edges() []EdgeInfo {
	edges := make([]EdgeInfo, 0, p.NumEdges())
	it := p.g.WeightedEdges()
	for it.Next() {
		e := it.WeightedEdge()
		from, to := e.From().ID(), e.To().ID()
		edges = append(edges, EdgeInfo{
			From:   from,
			To:     to,
			Pre:    p.names[from],
			Post:   p.names[to],
			Weight: e.Weight(),
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

func (p *Pathway) MaxWeight() float64 {
	maxWeight := 0.0
	it := p.g.WeightedEdges()
	for it.Next() {
		maxWeight = max(maxWeight, it.WeightedEdge().Weight())
	}
	return maxWeight
}
