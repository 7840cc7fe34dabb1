package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Snapshots are kept in their JSON form so callers never share payloads
// with the store. Safe for concurrent use.
type Store struct {
	data map[string]map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]map[string][]byte),
	}
}

// Save persists the snapshot in memory.
func (s *Store) Save(ctx context.Context, clientID string, snap *domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dialogues, ok := s.data[clientID]
	if !ok {
		dialogues = make(map[string][]byte)
		s.data[clientID] = dialogues
	}
	dialogues[snap.DialogueName] = raw
	return nil
}

// Load retrieves a snapshot from memory.
func (s *Store) Load(ctx context.Context, clientID, dialogue string) (*domain.Snapshot, error) {
	s.mu.RLock()
	raw, ok := s.data[clientID][dialogue]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, clientID, dialogue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[clientID], dialogue)
	if len(s.data[clientID]) == 0 {
		delete(s.data, clientID)
	}
	return nil
}

// List returns the dialogues stored for a client.
func (s *Store) List(ctx context.Context, clientID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dialogues := make([]string, 0, len(s.data[clientID]))
	for name := range s.data[clientID] {
		dialogues = append(dialogues, name)
	}
	sort.Strings(dialogues)
	return dialogues, nil
}
