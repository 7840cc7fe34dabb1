package dsm

import (
	"github.com/aretw0/parley/pkg/domain"
)

// CurrentResource returns the resource in focus for this turn.
//
// The search starts at Final and descends into unresolved children in
// declaration order. The first unresolved leaf wins and is then promoted
// through its wrapper parent unless it prefers to be addressed directly.
// The result is cached until the next mutation.
func (m *Manager) CurrentResource() *domain.Resource {
	if m.current != nil {
		return m.current
	}
	final := m.Final()
	if final.Is(domain.StateCancelled) {
		m.current = final
		return final
	}

	visited := make(map[string]bool)
	var find func(r *domain.Resource) *domain.Resource
	find = func(r *domain.Resource) *domain.Resource {
		if visited[r.Name] {
			return nil
		}
		visited[r.Name] = true
		if r.Resolved() {
			return nil
		}
		for _, child := range m.graph.Children(r.Name) {
			if found := find(child); found != nil {
				return found
			}
		}
		return m.promote(r)
	}

	current := find(final)
	if current == nil {
		current = final
	}
	m.current = current
	return current
}

// promote walks up through single wrapper parents. Multiple wrapper parents
// are rejected when the graph is built.
func (m *Manager) promote(r *domain.Resource) *domain.Resource {
	seen := map[string]bool{r.Name: true}
	for !r.PreferOverWrapper {
		wrappers := m.graph.WrapperParents(r.Name)
		if len(wrappers) != 1 || seen[wrappers[0].Name] {
			break
		}
		r = wrappers[0]
		seen[r.Name] = true
	}
	return r
}
