package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Loader implements ports.TemplateLoader using an in-memory map.
type Loader struct {
	mu        sync.RWMutex
	templates map[string]*domain.Template
}

// NewLoader creates a new Loader serving the given templates.
func NewLoader(templates ...*domain.Template) (*Loader, error) {
	l := &Loader{templates: make(map[string]*domain.Template)}
	for _, t := range templates {
		if err := l.Add(t); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Add registers or replaces a template.
func (l *Loader) Add(t *domain.Template) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("%w: template missing name", domain.ErrInvalidTemplate)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[t.Name] = t
	return nil
}

// Load returns the named template.
func (l *Loader) Load(ctx context.Context, dialogue string) (*domain.Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[dialogue]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDialogueNotFound, dialogue)
	}
	return t, nil
}

// List returns all available dialogue names.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.templates))
	for k := range l.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
