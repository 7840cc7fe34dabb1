package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunSnapshotStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	now := time.Now()
	clock := func() time.Time { return now }
	store := redis.NewFromClient(client, redis.WithTTL(time.Second), redis.WithClock(clock))
	ctx := context.Background()
	snap := &domain.Snapshot{DialogueName: "fruitseller", Resources: map[string]*domain.Resource{}}

	require.NoError(t, store.Save(ctx, "alice", snap))

	dialogues, err := store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, dialogues, "fruitseller")

	// Expire the key in miniredis and move the index clock past the TTL.
	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, err = store.Load(ctx, "alice", "fruitseller")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	dialogues, err = store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, dialogues)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, "alice", &domain.Snapshot{DialogueName: "fruitseller"})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:snapshot:alice:fruitseller"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index:alice"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"fruitseller"}, list)
}
