package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns of one client across engine replicas.
// The in-process session lock already covers a single replica.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx ends. The lock lapses after ttl
	// even if the holder never unlocks, so a crashed replica cannot wedge a
	// client.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
