package dsm

import (
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/schema"
)

// Manager is one dialogue instance: the resources of a dialogue for a single
// client during a single turn. It is not safe for concurrent use; callers
// serialize turns per client.
type Manager struct {
	template *domain.Template

	resources map[string]*domain.Resource
	order     []string
	graph     *Graph

	extras     map[string]any
	expiration time.Duration
	modifiedAt time.Time

	active   bool
	finished bool
	timedOut bool

	current  *domain.Resource
	answer   *domain.Answer
	answered bool
	// explicit is set by SetAnswer and outlives mutations.
	explicit *domain.Answer

	clock  func() time.Time
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithHooks registers lifecycle observers.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithClock overrides the time source used for expiration checks.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithExpiration overrides the expiration declared by the template.
func WithExpiration(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.expiration = d
		}
	}
}

// Name returns the dialogue name.
func (m *Manager) Name() string { return m.template.Name }

// Template returns the template the instance was built from.
func (m *Manager) Template() *domain.Template { return m.template }

// Graph returns the current dependency index.
func (m *Manager) Graph() *Graph { return m.graph }

// Resource looks up a resource by name.
func (m *Manager) Resource(name string) (*domain.Resource, error) {
	r, ok := m.resources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrResourceNotFound, name)
	}
	return r, nil
}

// MustResource looks up a resource that the dialogue definition guarantees.
// It panics on unknown names, which indicates a broken dialogue module.
func (m *Manager) MustResource(name string) *domain.Resource {
	r, err := m.Resource(name)
	if err != nil {
		panic(err)
	}
	return r
}

// Resources returns the resources in declaration order, dynamic clones last.
func (m *Manager) Resources() []*domain.Resource {
	out := make([]*domain.Resource, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.resources[name])
	}
	return out
}

// Final returns the root resource.
func (m *Manager) Final() *domain.Resource { return m.resources[domain.FinalResourceName] }

// Extras returns the free-form values persisted alongside the resources.
func (m *Manager) Extras() map[string]any { return m.extras }

// SetExtra stores a value in the extras map.
func (m *Manager) SetExtra(key string, value any) { m.extras[key] = value }

// Expiration returns the idle timeout in effect.
func (m *Manager) Expiration() time.Duration { return m.expiration }

// ModifiedAt returns the timestamp of the last serialization or hydration.
func (m *Manager) ModifiedAt() time.Time { return m.modifiedAt }

// Active reports whether the client is currently in this dialogue.
func (m *Manager) Active() bool { return m.active }

// Finished reports whether the dialogue ended, successfully or cancelled.
func (m *Manager) Finished() bool { return m.finished }

// TimedOut reports whether hydration found an expired snapshot.
func (m *Manager) TimedOut() bool { return m.timedOut }

// SetData assigns a payload and invalidates the turn caches. The payload
// must match the kind of the resource.
func (m *Manager) SetData(name string, data any) error {
	r, err := m.Resource(name)
	if err != nil {
		return err
	}
	if err := schema.Check(r.Kind, data); err != nil {
		return fmt.Errorf("cannot set data of %s: %w", name, err)
	}
	r.Data = data
	m.invalidate()
	return nil
}

// Snapshot returns a copy of the resources keyed by name, without
// changing lifecycle flags.
func (m *Manager) Snapshot() *domain.Snapshot {
	res := make(map[string]*domain.Resource, len(m.resources))
	for name, r := range m.resources {
		res[name] = r.Clone()
	}
	return &domain.Snapshot{
		DialogueName: m.Name(),
		Resources:    res,
		ModifiedAt:   m.modifiedAt,
		Extras:       maps.Clone(m.extras),
	}
}

func (m *Manager) invalidate() {
	m.current = nil
	m.answer = nil
	m.answered = false
}

// rebuild re-derives the graph from the resources in insertion order.
func (m *Manager) rebuild() error {
	g, err := BuildGraph(m.Resources())
	if err != nil {
		return fmt.Errorf("failed to build graph for %s: %w", m.Name(), err)
	}
	m.graph = g
	m.invalidate()
	return nil
}

func (m *Manager) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: m.clock(), Type: t, Dialogue: m.Name()}
}

func newManager(tmpl *domain.Template, opts ...Option) *Manager {
	m := &Manager{
		template:   tmpl,
		resources:  make(map[string]*domain.Resource),
		extras:     make(map[string]any),
		expiration: tmpl.Expiration(),
		clock:      time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("dialogue", tmpl.Name)
	return m
}
