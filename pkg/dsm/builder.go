package dsm

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/aretw0/parley/pkg/domain"
)

// New builds a fresh, inactive dialogue instance from a template.
func New(tmpl *domain.Template, opts ...Option) (*Manager, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("%w: nil template", domain.ErrInvalidTemplate)
	}
	m := newManager(tmpl, opts...)
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

// reset replaces every resource with a fresh copy from the template.
func (m *Manager) reset() error {
	m.resources = make(map[string]*domain.Resource, len(m.template.Resources))
	m.order = m.order[:0]
	for _, r := range m.template.Instantiate() {
		m.add(r)
	}
	m.extras = make(map[string]any)
	return m.rebuild()
}

func (m *Manager) add(r *domain.Resource) {
	m.resources[r.Name] = r
	m.order = append(m.order, r.Name)
}

// AddDynamicResource instantiates the named dynamic template, together with
// every dynamic template it requires, and links the new root under parent.
// Clones are suffixed with "_<index>" where index is one more than the
// number of existing clones of the template.
func (m *Manager) AddDynamicResource(template, parent string) (*domain.Resource, error) {
	if len(m.template.DynamicResources) == 0 {
		return nil, fmt.Errorf("%w: dialogue %s", domain.ErrNoDynamicResources, m.Name())
	}
	root, ok := m.template.Dynamic(template)
	if !ok {
		return nil, fmt.Errorf("%w: unknown dynamic resource %s", domain.ErrNoDynamicResources, template)
	}
	p, err := m.Resource(parent)
	if err != nil {
		return nil, err
	}

	closure := m.dynamicClosure(root)
	index := m.nextIndex(template, closure)
	suffix := "_" + strconv.Itoa(index)

	clones := m.cloneSet(closure, suffix)
	for _, c := range clones {
		c.OrderIndex = p.OrderIndex
	}

	// Keep enough to roll back if the new structure is invalid.
	prevOrder := len(m.order)
	prevRequires := p.Requires

	for _, c := range clones {
		m.add(c)
	}
	p.Requires = append(append([]string{}, p.Requires...), clones[0].Name)

	if err := m.rebuild(); err != nil {
		for _, c := range clones {
			delete(m.resources, c.Name)
		}
		m.order = m.order[:prevOrder]
		p.Requires = prevRequires
		if rbErr := m.rebuild(); rbErr != nil {
			return nil, fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return nil, err
	}
	m.logger.Debug("dynamic resource added", "resource", clones[0].Name, "parent", parent)
	return clones[0], nil
}

// dynamicClosure returns root followed by every dynamic template reachable
// through requires, in discovery order.
func (m *Manager) dynamicClosure(root *domain.Resource) []*domain.Resource {
	var out []*domain.Resource
	seen := make(map[string]bool)
	var visit func(r *domain.Resource)
	visit = func(r *domain.Resource) {
		if seen[r.Name] {
			return
		}
		seen[r.Name] = true
		out = append(out, r)
		for _, req := range r.Requires {
			if dyn, ok := m.template.Dynamic(req); ok {
				visit(dyn)
			}
		}
	}
	visit(root)
	return out
}

// nextIndex counts existing clones of template and bumps the index until
// no clone in the closure would collide with an existing resource.
func (m *Manager) nextIndex(template string, closure []*domain.Resource) int {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(template) + `_\d+$`)
	index := 1
	for name := range m.resources {
		if pattern.MatchString(name) {
			index++
		}
	}
	for {
		suffix := "_" + strconv.Itoa(index)
		free := true
		for _, t := range closure {
			if _, taken := m.resources[t.Name+suffix]; taken {
				free = false
				break
			}
		}
		if free {
			return index
		}
		index++
	}
}

// cloneSet runs the three clone steps over the closure: instantiate,
// rename with suffix, relink requires that point inside the closure.
func (m *Manager) cloneSet(closure []*domain.Resource, suffix string) []*domain.Resource {
	inClosure := make(map[string]bool, len(closure))
	for _, t := range closure {
		inClosure[t.Name] = true
	}
	out := make([]*domain.Resource, 0, len(closure))
	for _, t := range closure {
		c := domain.Fresh(t)
		c.Name = t.Name + suffix
		for i, req := range c.Requires {
			if inClosure[req] {
				c.Requires[i] = req + suffix
			}
		}
		out = append(out, c)
	}
	return out
}
