package parley_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newEngine(t *testing.T, opts ...parley.Option) (*parley.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	eng, err := parley.New(append([]parley.Option{parley.WithDialogue(greeter{}), parley.WithStore(store)}, opts...)...)
	require.NoError(t, err)
	return eng, store
}

func TestNew_RequiresDialogue(t *testing.T) {
	_, err := parley.New()
	assert.Error(t, err)
}

func TestEngine_UnknownDialogue(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	_, err := eng.Process(ctx, "c", "ghost", "hello")
	assert.ErrorIs(t, err, domain.ErrDialogueNotFound)
	_, err = eng.Inspect(ctx, "c", "ghost")
	assert.ErrorIs(t, err, domain.ErrDialogueNotFound)
	assert.ErrorIs(t, eng.Reset(ctx, "c", "ghost"), domain.ErrDialogueNotFound)
	assert.Equal(t, []string{"greeter"}, eng.Dialogues())
}

func TestEngine_NotUnderstoodLeavesNoTrace(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	reply, err := eng.Process(ctx, "c", "greeter", "what?")
	require.NoError(t, err)
	assert.False(t, reply.Understood)
	assert.Equal(t, domain.NotUnderstood, reply.Answer)
	assert.Empty(t, reply.Focus)

	stored, err := store.List(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestEngine_PersistsBetweenTurns(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	reply, err := eng.Process(ctx, "c", "greeter", "hello")
	require.NoError(t, err)
	assert.True(t, reply.Understood)
	assert.Equal(t, "Name", reply.Focus)
	require.NotNil(t, reply.Changes)
	assert.False(t, reply.Changes.Closed)

	snap, err := store.Load(ctx, "c", "greeter")
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnfulfilled, snap.Resources["Name"].State)

	m, err := eng.Inspect(ctx, "c", "greeter")
	require.NoError(t, err)
	assert.True(t, m.Active())
	assert.Equal(t, "Name", m.CurrentResource().Name)

	// Other clients are independent.
	other, err := eng.Process(ctx, "d", "greeter", "Ada")
	require.NoError(t, err)
	assert.False(t, other.Understood)

	reply, err = eng.Process(ctx, "c", "greeter", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you, Ada.", reply.Answer.Display)
	assert.True(t, reply.Finished)
	require.NotNil(t, reply.Changes)
	assert.True(t, reply.Changes.Closed)

	_, err = store.Load(ctx, "c", "greeter")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "finished dialogues are discarded")
}

func TestEngine_Cancel(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	_, err := eng.Process(ctx, "c", "greeter", "hello")
	require.NoError(t, err)
	reply, err := eng.Process(ctx, "c", "greeter", "bye")
	require.NoError(t, err)
	assert.Equal(t, "Goodbye.", reply.Answer.Display)
	assert.Equal(t, "Final", reply.Focus)
	assert.True(t, reply.Finished)

	dialogues, err := store.List(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, dialogues)
}

func TestEngine_Reset(t *testing.T) {
	eng, store := newEngine(t)
	ctx := context.Background()

	_, err := eng.Process(ctx, "c", "greeter", "hello")
	require.NoError(t, err)
	require.NoError(t, eng.Reset(ctx, "c", "greeter"))

	_, err = store.Load(ctx, "c", "greeter")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	m, err := eng.Inspect(ctx, "c", "greeter")
	require.NoError(t, err)
	assert.False(t, m.Active())
}

func TestEngine_TimeoutRestarts(t *testing.T) {
	clk := &clock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	var timeouts int
	hooks := domain.LifecycleHooks{
		OnTimeout: func(_ context.Context, e *domain.TurnEvent) {
			timeouts++
			assert.Equal(t, "c", e.ClientID)
		},
	}
	eng, _ := newEngine(t, parley.WithClock(clk.Now), parley.WithExpiration(time.Minute), parley.WithHooks(hooks))
	ctx := context.Background()

	_, err := eng.Process(ctx, "c", "greeter", "hello")
	require.NoError(t, err)

	clk.Advance(30 * time.Second)
	m, err := eng.Inspect(ctx, "c", "greeter")
	require.NoError(t, err)
	assert.False(t, m.TimedOut())

	clk.Advance(time.Minute)
	reply, err := eng.Process(ctx, "c", "greeter", "hello")
	require.NoError(t, err)
	assert.True(t, reply.TimedOut)
	assert.Equal(t, "What is your name?", reply.Answer.Display)
	assert.Equal(t, 1, timeouts)
}

func TestEngine_TurnHooks(t *testing.T) {
	var events []*domain.TurnEvent
	hooks := domain.LifecycleHooks{
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) { events = append(events, e) },
	}
	eng, _ := newEngine(t, parley.WithHooks(hooks))
	ctx := context.Background()

	for _, u := range []string{"nope", "hello", "Ada"} {
		_, err := eng.Process(ctx, "c", "greeter", u)
		require.NoError(t, err)
	}
	require.Len(t, events, 3)
	assert.Equal(t, "not_understood", events[0].Outcome())
	assert.Equal(t, "Name", events[1].Focus)
	assert.Equal(t, "finished", events[2].Outcome())
}

func TestEngine_RejectsUnsafeInput(t *testing.T) {
	eng, _ := newEngine(t)
	_, err := eng.Process(context.Background(), "c", "greeter", "hello\xff")
	assert.ErrorIs(t, err, runner.ErrInvalidUTF8)
}

func TestEngine_Template(t *testing.T) {
	eng, _ := newEngine(t)
	tmpl, err := eng.Template(context.Background(), "greeter")
	require.NoError(t, err)
	assert.Len(t, tmpl.Resources, 2)

	_, err = eng.Watch(context.Background())
	assert.Error(t, err, "templates provided by the dialogue cannot be watched")
}
