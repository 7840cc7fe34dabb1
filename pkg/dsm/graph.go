package dsm

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Filter selects which visited resources a traversal returns.
// Depth is 0 for the direct neighbours of the starting resource.
type Filter func(r *domain.Resource, depth int) bool

// AllowAll is the Filter that keeps every visited resource.
func AllowAll(*domain.Resource, int) bool { return true }

// Graph is the derived dependency index of a dialogue.
//
// It is built from the ordered resource list and never patched; structural
// changes rebuild it wholesale.
type Graph struct {
	nodes    map[string]*domain.Resource
	children map[string][]string
	parents  map[string][]string
	entry    string
}

// BuildGraph indexes the resources and validates the dependency structure.
func BuildGraph(resources []*domain.Resource) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[string]*domain.Resource, len(resources)),
		children: make(map[string][]string, len(resources)),
		parents:  make(map[string][]string, len(resources)),
	}

	// First pass: index all resources
	for _, r := range resources {
		if r.Name == "" {
			return nil, fmt.Errorf("%w: resource has empty name", domain.ErrInvalidTemplate)
		}
		if _, exists := g.nodes[r.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate resource %s", domain.ErrInvalidTemplate, r.Name)
		}
		g.nodes[r.Name] = r
		g.children[r.Name] = []string{}
		g.parents[r.Name] = []string{}
		if r.OrderIndex == 0 && g.entry == "" {
			g.entry = r.Name
		}
	}

	// Second pass: edges in declaration order
	for _, r := range resources {
		for _, req := range r.Requires {
			if _, exists := g.nodes[req]; !exists {
				return nil, fmt.Errorf("%w: %s requires unknown resource %s: %w",
					domain.ErrInvalidTemplate, r.Name, req, domain.ErrResourceNotFound)
			}
			g.children[r.Name] = append(g.children[r.Name], req)
			g.parents[req] = append(g.parents[req], r.Name)
		}
	}

	if err := g.validate(resources); err != nil {
		return nil, err
	}
	return g, nil
}

// Entry returns the nominal entry point, the first resource with OrderIndex 0.
func (g *Graph) Entry() string { return g.entry }

// Len returns the number of indexed resources.
func (g *Graph) Len() int { return len(g.nodes) }

// Children returns the direct requirements of name in declaration order.
func (g *Graph) Children(name string) []*domain.Resource {
	return g.lookup(g.children[name])
}

// Parents returns the resources that directly require name.
func (g *Graph) Parents(name string) []*domain.Resource {
	return g.lookup(g.parents[name])
}

// Descendants walks the children of name in preorder, excluding name itself.
func (g *Graph) Descendants(name string, filter Filter) []*domain.Resource {
	return g.walk(name, g.children, filter)
}

// Ancestors walks the parents of name in preorder, excluding name itself.
func (g *Graph) Ancestors(name string, filter Filter) []*domain.Resource {
	return g.walk(name, g.parents, filter)
}

// WrapperParents returns the direct parents of name that are wrappers.
func (g *Graph) WrapperParents(name string) []*domain.Resource {
	var out []*domain.Resource
	for _, p := range g.Parents(name) {
		if p.Kind.IsWrapper() {
			out = append(out, p)
		}
	}
	return out
}

func (g *Graph) lookup(names []string) []*domain.Resource {
	out := make([]*domain.Resource, 0, len(names))
	for _, n := range names {
		out = append(out, g.nodes[n])
	}
	return out
}

func (g *Graph) walk(start string, edges map[string][]string, filter Filter) []*domain.Resource {
	if _, ok := g.nodes[start]; !ok {
		return nil
	}
	if filter == nil {
		filter = AllowAll
	}
	var out []*domain.Resource
	visited := map[string]bool{start: true}
	var visit func(name string, depth int)
	visit = func(name string, depth int) {
		for _, next := range edges[name] {
			if visited[next] {
				continue
			}
			visited[next] = true
			if r := g.nodes[next]; filter(r, depth) {
				out = append(out, r)
			}
			visit(next, depth+1)
		}
	}
	visit(start, 0)
	return out
}

// validate enforces the structural invariants every dialogue relies on.
func (g *Graph) validate(resources []*domain.Resource) error {
	if err := g.detectCycles(resources); err != nil {
		return err
	}
	if err := g.validateFinal(resources); err != nil {
		return err
	}
	return g.validateWrappers(resources)
}

// detectCycles uses depth-first search over requires edges.
func (g *Graph) detectCycles(resources []*domain.Resource) error {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var visit func(name string) []string
	visit = func(name string) []string {
		visited[name] = true
		onStack[name] = true
		path = append(path, name)
		for _, child := range g.children[name] {
			if !visited[child] {
				if cycle := visit(child); cycle != nil {
					return cycle
				}
			} else if onStack[child] {
				for i, n := range path {
					if n == child {
						return append(append([]string{}, path[i:]...), child)
					}
				}
			}
		}
		onStack[name] = false
		path = path[:len(path)-1]
		return nil
	}

	for _, r := range resources {
		if visited[r.Name] {
			continue
		}
		if cycle := visit(r.Name); cycle != nil {
			return fmt.Errorf("%w: %s", domain.ErrCycle, strings.Join(cycle, " -> "))
		}
	}
	return nil
}

func (g *Graph) validateFinal(resources []*domain.Resource) error {
	var finals []string
	for _, r := range resources {
		if r.Kind == domain.KindFinal {
			finals = append(finals, r.Name)
		}
	}
	switch {
	case len(finals) == 0:
		return fmt.Errorf("%w: no final resource", domain.ErrInvalidTemplate)
	case len(finals) > 1:
		return fmt.Errorf("%w: multiple final resources: %s", domain.ErrInvalidTemplate, strings.Join(finals, ", "))
	case finals[0] != domain.FinalResourceName:
		return fmt.Errorf("%w: final resource must be named %s, got %s",
			domain.ErrInvalidTemplate, domain.FinalResourceName, finals[0])
	}
	if parents := g.parents[domain.FinalResourceName]; len(parents) > 0 {
		return fmt.Errorf("%w: %s is required by %s",
			domain.ErrInvalidTemplate, domain.FinalResourceName, strings.Join(parents, ", "))
	}
	return nil
}

// validateWrappers rejects a resource with more than one wrapper parent and
// a resource whose upward paths reach more than one nearest wrapper.
func (g *Graph) validateWrappers(resources []*domain.Resource) error {
	nearest := make(map[string][]string)
	var collect func(name string) []string
	collect = func(name string) []string {
		if ws, ok := nearest[name]; ok {
			return ws
		}
		nearest[name] = nil
		seen := make(map[string]bool)
		var ws []string
		for _, p := range g.parents[name] {
			var found []string
			if g.nodes[p].Kind.IsWrapper() {
				found = []string{p}
			} else {
				found = collect(p)
			}
			for _, w := range found {
				if !seen[w] {
					seen[w] = true
					ws = append(ws, w)
				}
			}
		}
		nearest[name] = ws
		return ws
	}

	for _, r := range resources {
		if wp := g.WrapperParents(r.Name); len(wp) > 1 {
			return fmt.Errorf("%w: %s", domain.ErrMultipleWrapperParents, r.Name)
		}
		if ws := collect(r.Name); len(ws) > 1 {
			return fmt.Errorf("%w: %s is reachable from wrappers %s",
				domain.ErrMultipleWrapperParents, r.Name, strings.Join(ws, ", "))
		}
	}
	return nil
}
