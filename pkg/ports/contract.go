package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(dialogue string) *domain.Snapshot {
	return &domain.Snapshot{
		DialogueName: dialogue,
		ModifiedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Resources: map[string]*domain.Resource{
			"Fruits": {
				Name:  "Fruits",
				Kind:  domain.KindList,
				State: domain.StatePartiallyFulfilled,
				Data:  []domain.ListItem{{Name: "apple", Quantity: 2}},
			},
			"Final": {Name: "Final", Kind: domain.KindFinal, Requires: []string{"Fruits"}},
		},
		Extras: map[string]any{"channel": "sms"},
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	clientID := "contract-client-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot("fruitseller")

		err := store.Save(ctx, clientID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, clientID, "fruitseller")
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "fruitseller", loaded.DialogueName)
		assert.True(t, snap.ModifiedAt.Equal(loaded.ModifiedAt))
		require.Contains(t, loaded.Resources, "Fruits")
		assert.Equal(t, domain.StatePartiallyFulfilled, loaded.Resources["Fruits"].State)
		// Payloads come back in their generic JSON form.
		assert.Equal(t, []domain.ListItem{{Name: "apple", Quantity: 2}}, loaded.Resources["Fruits"].ListItems())
		assert.Equal(t, "sms", loaded.Extras["channel"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		snap := contractSnapshot("fruitseller")
		snap.Resources["Fruits"].State = domain.StateConfirmed
		require.NoError(t, store.Save(ctx, clientID, snap))

		loaded, err := store.Load(ctx, clientID, "fruitseller")
		require.NoError(t, err)
		assert.Equal(t, domain.StateConfirmed, loaded.Resources["Fruits"].State)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+clientID, "fruitseller")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

		_, err = store.Load(ctx, clientID, "no-such-dialogue")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, clientID, contractSnapshot("doomed")))

		err := store.Delete(ctx, clientID, "doomed")
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, clientID, "doomed")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, clientID, "doomed"), "Delete is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		other := clientID + "-list"
		_ = store.Save(ctx, other, contractSnapshot("a"))
		_ = store.Save(ctx, other, contractSnapshot("b"))

		defer func() {
			_ = store.Delete(ctx, other, "a")
			_ = store.Delete(ctx, other, "b")
		}()

		dialogues, err := store.List(ctx, other)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, dialogues)

		empty, err := store.List(ctx, "nobody-"+clientID)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
