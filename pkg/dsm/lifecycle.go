package dsm

import (
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/schema"
)

// Hydrate rebuilds a dialogue from its template and overlays a persisted
// snapshot on top of it. Prompts and structure always come from the
// template; only states, payloads and extras survive.
//
// A nil snapshot yields an inactive instance. An expired snapshot yields an
// active instance marked as timed out, with no overlay.
func Hydrate(tmpl *domain.Template, snap *domain.Snapshot, opts ...Option) (*Manager, error) {
	m, err := New(tmpl, opts...)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return m, nil
	}
	m.active = true
	m.modifiedAt = snap.ModifiedAt

	if snap.Expired(m.clock(), m.expiration) {
		m.timedOut = true
		m.logger.Info("dialogue timed out", "modified_at", snap.ModifiedAt, "expiration", m.expiration)
		return m, nil
	}

	m.restoreClones(snap)

	for name, r := range m.resources {
		saved, ok := snap.Resources[name]
		if !ok || saved == nil {
			continue
		}
		// A payload that no longer fits the template is dropped with its state.
		if err := schema.Check(r.Kind, saved.Data); err != nil {
			m.logger.Warn("discarding stored payload", "resource", name, "err", err)
			continue
		}
		r.State = saved.State
		r.Data = saved.Data
	}
	if snap.Extras != nil {
		m.extras = maps.Clone(snap.Extras)
	}
	if err := m.rebuild(); err != nil {
		return nil, err
	}
	return m, nil
}

// restoreClones re-instantiates dynamic clones found in the snapshot and
// relinks them under the parents that required them.
func (m *Manager) restoreClones(snap *domain.Snapshot) {
	var names []string
	for name := range snap.Resources {
		if _, exists := m.resources[name]; exists {
			continue
		}
		base := BaseName(name)
		if base == name {
			continue
		}
		if _, ok := m.template.Dynamic(base); !ok {
			m.logger.Debug("dropping unknown resource from snapshot", "resource", name)
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return
	}
	slices.Sort(names)

	for _, name := range names {
		base := BaseName(name)
		suffix := strings.TrimPrefix(name, base)
		t, _ := m.template.Dynamic(base)
		clone := m.cloneSet([]*domain.Resource{t}, suffix)[0]
		for i, req := range clone.Requires {
			if _, ok := m.template.Dynamic(req); ok {
				clone.Requires[i] = req + suffix
			}
		}
		if saved := snap.Resources[name]; saved != nil {
			clone.OrderIndex = saved.OrderIndex
		}
		m.add(clone)
	}

	// Only edges towards restored clones come back; every other edge is
	// owned by the template.
	for _, name := range m.order {
		saved, ok := snap.Resources[name]
		if !ok || saved == nil {
			continue
		}
		r := m.resources[name]
		for _, req := range saved.Requires {
			if !slices.Contains(names, req) || slices.Contains(r.Requires, req) {
				continue
			}
			r.Requires = append(r.Requires, req)
		}
	}
}

// Serialize returns the snapshot to persist, or nil when the dialogue is
// over and the next turn should start fresh. A confirmed Final marks the
// dialogue as finished.
func (m *Manager) Serialize() *domain.Snapshot {
	if m.Final().Is(domain.StateConfirmed) {
		m.finished = true
	}
	if m.finished || m.timedOut {
		return nil
	}
	m.modifiedAt = m.clock()
	return m.Snapshot()
}

// Start enters the dialogue. A timed out dialogue restarts from the template.
func (m *Manager) Start() error {
	if m.timedOut || m.finished {
		if err := m.reset(); err != nil {
			return err
		}
		m.timedOut = false
		m.finished = false
	}
	m.active = true
	m.logger.Debug("dialogue started")
	return nil
}

// Finish ends the dialogue. The current turn still answers; the next
// Serialize returns nil.
func (m *Manager) Finish() {
	m.finished = true
	m.logger.Debug("dialogue finished")
}
