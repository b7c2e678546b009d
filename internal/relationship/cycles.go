package relationship

import (
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

// cycleTypes are the edge kinds that take part in cycle detection.
var cycleTypes = map[model.RelationshipType]bool{
	model.Extends:     true,
	model.Implements:  true,
	model.Composition: true,
	model.Dependency:  true,
}

// DetectCircularDependencies reports every cycle found by a depth-first
// search over extends, implements, composition and dependency edges. Each
// cycle is the path from the repeated node back to itself, so a dependency
// self-edge X->X reports [X X]. Cycles are compared as exact sequences: the
// same loop entered from a different member is reported again.
func (d *Detector) DetectCircularDependencies() [][]string {
	cycles := d.findCycles()
	if len(cycles) > 0 {
		d.logger.Warn("circular dependencies detected", "count", len(cycles))
	}
	return cycles
}

func (d *Detector) findCycles() [][]string {
	adjacency := make(map[string][]string)
	var order []string
	for _, e := range d.relationships {
		if !cycleTypes[e.Type] {
			continue
		}
		if _, ok := adjacency[e.From]; !ok {
			order = append(order, e.From)
		}
		adjacency[e.From] = append(adjacency[e.From], e.To)
	}

	cycles := [][]string{}
	seen := make(map[string]struct{})
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(node string, path []string)
	visit = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path[:len(path):len(path)], node)

		for _, next := range adjacency[node] {
			if !visited[next] {
				visit(next, path)
				continue
			}
			if !onStack[next] {
				continue
			}
			start := indexOf(path, next)
			cycle := append(append([]string{}, path[start:]...), next)
			key := strings.Join(cycle, "\x00")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			cycles = append(cycles, cycle)
		}

		onStack[node] = false
	}

	for _, node := range order {
		if !visited[node] {
			visit(node, nil)
		}
	}

	return cycles
}

func indexOf(path []string, node string) int {
	for i, p := range path {
		if p == node {
			return i
		}
	}
	return 0
}
