package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// SnapshotStore persists dialogue snapshots keyed by client and dialogue name.
type SnapshotStore interface {
	// Save persists the snapshot of a dialogue for a client.
	// The dialogue name is taken from the snapshot.
	Save(ctx context.Context, clientID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot of a dialogue for a client.
	// Returns domain.ErrSnapshotNotFound if nothing is stored.
	Load(ctx context.Context, clientID, dialogue string) (*domain.Snapshot, error)

	// Delete removes the snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, clientID, dialogue string) error

	// List returns the dialogue names stored for a client.
	List(ctx context.Context, clientID string) ([]string, error)
}
