package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Mask replaces values whose keys match a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks snapshot extras whose keys match any pattern, at any
// nesting depth. Resource payloads are left alone so dialogues still hydrate.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, clientID string, snap *domain.Snapshot) error {
	// The live dialogue keeps the real values.
	cloned := *snap
	cloned.Extras = deepCopyMap(snap.Extras)
	maskMap(cloned.Extras, m.patterns)

	return m.next.Save(ctx, clientID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, clientID, dialogue string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, clientID, dialogue)
}

func (m *piiMiddleware) Delete(ctx context.Context, clientID, dialogue string) error {
	return m.next.Delete(ctx, clientID, dialogue)
}

func (m *piiMiddleware) List(ctx context.Context, clientID string) ([]string, error) {
	return m.next.List(ctx, clientID)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(sub)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if sub, ok := v.(map[string]any); ok && !masked {
			maskMap(sub, patterns)
		}
	}
}
