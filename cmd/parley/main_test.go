package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, parley.Version)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
name: good
resources:
  - name: Fruits
    kind: list
  - name: Final
    kind: final
    requires: [Fruits]
`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`
name: bad
resources:
  - name: Final
    kind: final
    requires: [Ghost]
`), 0o644))

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, `dialogue "good", 2 resources`)

	out, err = execute(t, "validate", good, bad)
	assert.Error(t, err)
	assert.Contains(t, out, "✗ "+bad)
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "graph", "fruitseller", "--store", "memory", "--client", "")
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "DateTime")
}

func TestSession(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	snap := &domain.Snapshot{
		DialogueName: "fruitseller",
		Resources: map[string]*domain.Resource{
			"Fruits": {Name: "Fruits", Kind: domain.KindList, State: domain.StateFulfilled},
		},
	}
	require.NoError(t, store.Save(context.Background(), "alice", snap))

	flag := "file:" + dir

	out, err := execute(t, "session", "ls", "alice", "--store", flag)
	require.NoError(t, err)
	assert.Equal(t, "fruitseller\n", out)

	out, err = execute(t, "session", "inspect", "alice", "fruitseller", "--store", flag)
	require.NoError(t, err)
	assert.Contains(t, out, `"Fruits"`)
	assert.NotContains(t, out, "warning:")

	snap.Resources["Fruits"].Data = "a basket"
	require.NoError(t, store.Save(context.Background(), "alice", snap))
	out, err = execute(t, "session", "inspect", "alice", "fruitseller", "--store", flag)
	require.NoError(t, err)
	assert.Contains(t, out, `warning: resource "Fruits" (list):`)

	out, err = execute(t, "session", "rm", "alice", "fruitseller", "--store", flag)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted alice/fruitseller")

	out, err = execute(t, "session", "ls", "alice", "--store", flag)
	require.NoError(t, err)
	assert.Contains(t, out, "No dialogues stored for alice.")
}

func TestStoreFlag(t *testing.T) {
	_, err := execute(t, "session", "ls", "bob", "--store", "carrier-pigeon")
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = execute(t, "session", "ls", "bob", "--store", "sqlite")
	assert.ErrorIs(t, err, config.ErrInvalid, "sqlite needs a path")
}

func TestSessionPrune(t *testing.T) {
	db := "sqlite:" + filepath.Join(t.TempDir(), "parley.db")
	out, err := execute(t, "session", "prune", "--older-than", "1h", "--store", db)
	require.NoError(t, err)
	assert.Equal(t, "Pruned 0 snapshots\n", out)

	_, err = execute(t, "session", "prune", "--store", "memory")
	assert.ErrorContains(t, err, "does not support pruning")
}
