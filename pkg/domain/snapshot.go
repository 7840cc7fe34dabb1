package domain

import "time"

// Snapshot is the persisted state of one dialogue for one client.
//
// Only State and Data of each resource are meaningful on hydration; the rest
// of the resource comes from the current template.
type Snapshot struct {
	DialogueName string               `json:"dialogue_name"`
	Resources    map[string]*Resource `json:"resources"`
	ModifiedAt   time.Time            `json:"modified_at"`
	Extras       map[string]any       `json:"extras,omitempty"`
}

// Expired reports whether the snapshot is at least ttl old at now.
func (s *Snapshot) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.ModifiedAt) >= ttl
}
