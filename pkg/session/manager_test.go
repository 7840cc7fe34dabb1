package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerializesClientTurns(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, "alice", func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, maxInside)
}

func TestManager_ClientsRunInParallel(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	entered := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = manager.WithLock(ctx, "alice", func(ctx context.Context) error {
			close(entered)
			<-done
			return nil
		})
	}()
	<-entered

	err := manager.WithLock(ctx, "bob", func(ctx context.Context) error { return nil })
	assert.NoError(t, err, "bob is not blocked by alice")
	close(done)
}

func TestManager_LoadMissingIsNil(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	snap, err := manager.Load(context.Background(), "alice", "fruitseller")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestManager_SaveLoadDelete(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "alice", &domain.Snapshot{DialogueName: "fruitseller"}))
	snap, err := manager.Load(ctx, "alice", "fruitseller")
	require.NoError(t, err)
	require.NotNil(t, snap)

	list, err := manager.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"fruitseller"}, list)

	require.NoError(t, manager.Delete(ctx, "alice", "fruitseller"))
	snap, err = manager.Load(ctx, "alice", "fruitseller")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	ttl      time.Duration
	unlocked int
	fail     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.ttl = ttl
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return ctx.Err()
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(),
		session.WithLocker(locker),
		session.WithLockTTL(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	err := manager.WithLock(ctx, "alice", func(ctx context.Context) error {
		cancel()
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, locker.locked)
	assert.Equal(t, 5*time.Second, locker.ttl)
	assert.Equal(t, 1, locker.unlocked, "released even after the turn context ends")
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := &recordingLocker{fail: errors.New("redis down")}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))

	called := false
	err := manager.WithLock(context.Background(), "alice", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "redis down")
	assert.False(t, called)
}
