package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a client's lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to the snapshots of each client. Turns of the
// same client never interleave; different clients proceed in parallel.
// Lock entries are reference counted and dropped once unused.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager over the given snapshot store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release once unlocked.
func (m *Manager) acquire(clientID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[clientID]
	if !exists {
		entry = &lockEntry{}
		m.locks[clientID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[clientID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, clientID)
	}
}

// Load retrieves a snapshot. A missing snapshot yields (nil, nil): the
// dialogue simply has no saved state for this client.
func (m *Manager) Load(ctx context.Context, clientID, dialogue string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, clientID, func(ctx context.Context) error {
		var err error
		snap, err = m.LoadUnlocked(ctx, clientID, dialogue)
		return err
	})
	return snap, err
}

// LoadUnlocked is Load for callers already inside WithLock.
func (m *Manager) LoadUnlocked(ctx context.Context, clientID, dialogue string) (*domain.Snapshot, error) {
	snap, err := m.store.Load(ctx, clientID, dialogue)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// Save persists a snapshot.
func (m *Manager) Save(ctx context.Context, clientID string, snap *domain.Snapshot) error {
	return m.WithLock(ctx, clientID, func(ctx context.Context) error {
		return m.store.Save(ctx, clientID, snap)
	})
}

// Delete removes the snapshot of a dialogue.
func (m *Manager) Delete(ctx context.Context, clientID, dialogue string) error {
	return m.WithLock(ctx, clientID, func(ctx context.Context) error {
		return m.store.Delete(ctx, clientID, dialogue)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context, clientID string) ([]string, error) {
	return m.store.List(ctx, clientID)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes fn while holding the client's lock, locally and, when a
// distributed locker is configured, across replicas.
func (m *Manager) WithLock(ctx context.Context, clientID string, fn func(context.Context) error) error {
	entry := m.acquire(clientID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(clientID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, clientID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Release even if the turn's context was cancelled.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"client_id", clientID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
