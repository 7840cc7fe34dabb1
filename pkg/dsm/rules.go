package dsm

import (
	"fmt"
	"slices"

	"github.com/aretw0/parley/pkg/domain"
)

// SetState assigns s to the named resource.
//
// When s ranks below the old state on the ladder and the resource cascades,
// every ancestor is forced back to unfulfilled first. The forced ancestors do
// not cascade further.
func (m *Manager) SetState(name string, s domain.ResourceState) error {
	r, err := m.Resource(name)
	if err != nil {
		return err
	}
	old := r.State
	if r.CascadeState && s.Below(old) {
		m.cascade(r)
	}
	m.assign(r, s)
	return nil
}

// ForceState assigns s without any cascade.
func (m *Manager) ForceState(name string, s domain.ResourceState) error {
	r, err := m.Resource(name)
	if err != nil {
		return err
	}
	m.assign(r, s)
	return nil
}

func (m *Manager) cascade(origin *domain.Resource) {
	ancestors := m.graph.Ancestors(origin.Name, AllowAll)
	if len(ancestors) == 0 {
		return
	}
	names := make([]string, 0, len(ancestors))
	for _, a := range ancestors {
		m.assign(a, domain.StateUnfulfilled)
		names = append(names, a.Name)
	}
	m.logger.Debug("cascade invalidated ancestors", "resource", origin.Name, "ancestors", names)
	if m.hooks.OnCascade != nil {
		m.hooks.OnCascade(&domain.CascadeEvent{
			EventBase: m.event(domain.EventCascade),
			Origin:    origin.Name,
			Ancestors: names,
		})
	}
}

func (m *Manager) assign(r *domain.Resource, s domain.ResourceState) {
	from := r.State
	r.State = s
	m.invalidate()
	if from == s {
		return
	}
	m.logger.Debug("resource state changed", "resource", r.Name, "from", from, "to", s)
	if m.hooks.OnStateChange != nil {
		m.hooks.OnStateChange(&domain.StateEvent{
			EventBase: m.event(domain.EventStateChange),
			Resource:  r.Name,
			From:      from,
			To:        s,
		})
	}
}

// UpdateWrapperState derives the state of a wrapper from its children.
// It only moves unfulfilled to partially fulfilled and partially fulfilled to
// fulfilled; confirmation always needs an explicit SetState.
func (m *Manager) UpdateWrapperState(name string) error {
	w, err := m.Resource(name)
	if err != nil {
		return err
	}
	if !w.Kind.IsWrapper() {
		return fmt.Errorf("%w: %s is %s, not a wrapper", domain.ErrInvalidKind, name, w.Kind)
	}
	children := m.graph.Children(name)

	switch w.State {
	case domain.StateUnfulfilled:
		for _, c := range children {
			if !c.Is(domain.StateUnfulfilled) {
				return m.SetState(name, domain.StatePartiallyFulfilled)
			}
		}
	case domain.StatePartiallyFulfilled:
		for _, c := range children {
			if !c.Is(domain.StateConfirmed) {
				return nil
			}
		}
		return m.SetState(name, domain.StateFulfilled)
	}
	return nil
}

// ResolveExclusiveGroup marks every member of an or-group other than chosen
// as skipped.
func (m *Manager) ResolveExclusiveGroup(group, chosen string) error {
	g, err := m.Resource(group)
	if err != nil {
		return err
	}
	if g.Kind != domain.KindOr {
		return fmt.Errorf("%w: %s is %s, not an exclusive group", domain.ErrInvalidKind, group, g.Kind)
	}
	if _, err := m.Resource(chosen); err != nil {
		return err
	}
	if !slices.Contains(g.Requires, chosen) {
		return fmt.Errorf("%w: %s is not a member of %s", domain.ErrResourceNotFound, chosen, group)
	}
	for _, member := range g.Requires {
		if member == chosen {
			continue
		}
		if err := m.SetState(member, domain.StateSkipped); err != nil {
			return err
		}
	}
	return nil
}
