package relationship

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/classmap/internal/model"
)

// Graph builds a directed graph with one vertex per known class and one edge
// per distinct (from, to) pair in the current relationship list. Edges whose
// endpoints are not known classes are skipped.
func (d *Detector) Graph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed())

	names := make([]string, 0, len(d.known))
	for name := range d.known {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := g.AddVertex(name); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add class %s: %w", name, err)
		}
	}

	for _, e := range d.relationships {
		if !d.Known(e.From) || !d.Known(e.To) {
			continue
		}
		err := g.AddEdge(e.From, e.To)
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("failed to add edge %s -> %s: %w", e.From, e.To, err)
		}
	}

	return g, nil
}

// Summary reports the size of the relationship graph and its strongly
// connected components with more than one member, each sorted by name.
func (d *Detector) Summary() (*model.GraphSummary, error) {
	g, err := d.Graph()
	if err != nil {
		return nil, err
	}

	nodes, err := g.Order()
	if err != nil {
		return nil, fmt.Errorf("failed to count vertices: %w", err)
	}
	edges, err := g.Size()
	if err != nil {
		return nil, fmt.Errorf("failed to count edges: %w", err)
	}

	sccs, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return nil, fmt.Errorf("failed to compute components: %w", err)
	}

	var components [][]string
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		members := append([]string(nil), scc...)
		sort.Strings(members)
		components = append(components, members)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})

	return &model.GraphSummary{Nodes: nodes, Edges: edges, Components: components}, nil
}
