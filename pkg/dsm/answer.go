package dsm

import (
	"fmt"
	"regexp"

	"github.com/aretw0/parley/pkg/domain"
)

// AnswerFunc produces the reply for a resource. Returning nil without an
// error means the function has nothing to say for this turn.
type AnswerFunc func(r *domain.Resource, m *Manager, result domain.ParseResult) (*domain.Answer, error)

// Registry maps resource base names to answering functions.
type Registry map[string]AnswerFunc

var cloneSuffix = regexp.MustCompile(`_\d+$`)

// BaseName strips a dynamic clone suffix such as "_2" from name.
func BaseName(name string) string {
	return cloneSuffix.ReplaceAllString(name, "")
}

// Answer resolves the reply for the current resource. The outcome,
// including the absence of an answer, is memoized until the next mutation.
//
// A nil answer with a nil error is a normal outcome that callers map to a
// not-understood reply.
func (m *Manager) Answer(registry Registry, result domain.ParseResult) (*domain.Answer, error) {
	if m.explicit != nil {
		return m.explicit, nil
	}
	if m.answered {
		return m.answer, nil
	}
	current := m.CurrentResource()

	ans, err := m.dispatch(current, registry, result)
	if err != nil {
		return nil, err
	}
	// Answering functions may mutate state, which clears the memo; store last.
	m.answer = ans
	m.answered = true
	if ans != nil {
		m.logger.Debug("answer resolved", "resource", current.Name)
	}
	return ans, nil
}

// SetAnswer supplies the reply for this turn directly. It takes precedence
// over the registry and survives later mutations. A nil answer clears it.
func (m *Manager) SetAnswer(a *domain.Answer) {
	m.explicit = a
}

func (m *Manager) dispatch(current *domain.Resource, registry Registry, result domain.ParseResult) (*domain.Answer, error) {
	if current.Is(domain.StateCancelled) {
		fn, ok := registry[domain.FinalResourceName]
		if !ok {
			return nil, fmt.Errorf("%w: no answering function registered", domain.ErrMissingFinalAnswer)
		}
		ans, err := fn(current, m, result)
		if err != nil {
			return nil, fmt.Errorf("failed to answer cancellation: %w", err)
		}
		if ans == nil {
			return nil, fmt.Errorf("%w: answering function returned nothing", domain.ErrMissingFinalAnswer)
		}
		return ans, nil
	}

	if fn, ok := registry[BaseName(current.Name)]; ok {
		return call(fn, current, m, result)
	}

	visited := make(map[string]bool)
	var search func(r *domain.Resource) (*domain.Answer, error)
	search = func(r *domain.Resource) (*domain.Answer, error) {
		visited[r.Name] = true
		for _, child := range m.graph.Children(r.Name) {
			if visited[child.Name] {
				continue
			}
			ans, err := search(child)
			if err != nil || ans != nil {
				return ans, err
			}
		}
		if fn, ok := registry[r.Name]; ok {
			return call(fn, r, m, result)
		}
		return nil, nil
	}
	return search(current)
}

func call(fn AnswerFunc, r *domain.Resource, m *Manager, result domain.ParseResult) (*domain.Answer, error) {
	ans, err := fn(r, m, result)
	if err != nil {
		return nil, fmt.Errorf("answering function for %s failed: %w", r.Name, err)
	}
	return ans, nil
}
