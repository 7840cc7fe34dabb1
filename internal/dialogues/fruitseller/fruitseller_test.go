package fruitseller_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/dialogues/fruitseller"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newEngine(t *testing.T) (*parley.Engine, *memory.Store) {
	t.Helper()
	d, err := fruitseller.New(fruitseller.WithClock(clock))
	require.NoError(t, err)
	store := memory.NewStore()
	e, err := parley.New(
		parley.WithDialogue(d),
		parley.WithStore(store),
		parley.WithClock(clock),
	)
	require.NoError(t, err)
	return e, store
}

type turn struct {
	say   string
	reply string
	focus string
}

func converse(t *testing.T, e *parley.Engine, turns []turn) *domain.Reply {
	t.Helper()
	var last *domain.Reply
	for _, tt := range turns {
		reply, err := e.Process(context.Background(), "alice", fruitseller.Name, tt.say)
		require.NoError(t, err, tt.say)
		assert.Equal(t, tt.reply, reply.Answer.Display, tt.say)
		if tt.focus != "" {
			assert.Equal(t, tt.focus, reply.Focus, tt.say)
		}
		last = reply
	}
	return last
}

func TestTemplate(t *testing.T) {
	d, err := fruitseller.New()
	require.NoError(t, err)
	tmpl := d.Template()
	assert.Equal(t, fruitseller.Name, tmpl.Name)
	assert.Len(t, tmpl.Resources, 5)
	assert.Equal(t, 30*time.Minute, tmpl.Expiration())
}

func TestConversation_FullOrder(t *testing.T) {
	e, store := newEngine(t)

	last := converse(t, e, []turn{
		{say: "I want to buy fruit", reply: "What fruit would you like to order?", focus: "Fruits"},
		{say: "what do you have", reply: "We have bananas, apples, pears and oranges."},
		{say: "two apples and a banana", reply: "You have 2 apples and 1 banana in your order. Anything else?"},
		{say: "and one more apple", reply: "You have 3 apples and 1 banana in your order. Anything else?"},
		{say: "no", reply: "So that's 3 apples and 1 banana. Is that correct?"},
		{say: "yes", reply: "When would you like the fruit delivered?", focus: "DateTime"},
		{say: "tomorrow", reply: "Delivery on 2026/05/02. At what time?"},
		{say: "at 3pm", reply: "Delivery on 2026/05/02 15:00. Is that correct?"},
		{say: "yes", reply: "Thank you! 3 apples and 1 banana will be delivered on 2026/05/02 15:00.", focus: "Final"},
	})
	assert.True(t, last.Finished)

	_, err := store.Load(context.Background(), "alice", fruitseller.Name)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "finished orders are discarded")
}

func TestConversation_Corrections(t *testing.T) {
	e, _ := newEngine(t)

	converse(t, e, []turn{
		{say: "order fruit", reply: "What fruit would you like to order?"},
		{say: "3 pears", reply: "You have 3 pears in your order. Anything else?"},
		{say: "remove the apples", reply: "I could not find that in your order. You have 3 pears in your order. Anything else?"},
		{say: "replace the pears with oranges", reply: "You have 1 orange in your order. Anything else?"},
		{say: "remove the orange", reply: "Your order is empty. What fruit would you like?"},
		{say: "a banana", reply: "You have 1 banana in your order. Anything else?"},
		{say: "nothing else", reply: "So that's 1 banana. Is that correct?"},
		{say: "no", reply: "You have 1 banana in your order. Anything else?"},
		{say: "no", reply: "So that's 1 banana. Is that correct?"},
		{say: "yes", reply: "When would you like the fruit delivered?"},
		{say: "at 25:00", reply: "Sorry, that is not a valid time of day."},
		{say: "at 9:30", reply: "Delivery at 09:30. On which day?"},
		{say: "may 20", reply: "Delivery on 2026/05/20 09:30. Is that correct?"},
	})
}

func TestConversation_AddingFruitReopensOrder(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	converse(t, e, []turn{
		{say: "fruit", reply: "What fruit would you like to order?"},
		{say: "an apple", reply: "You have 1 apple in your order. Anything else?"},
		{say: "no", reply: "So that's 1 apple. Is that correct?"},
		{say: "yes", reply: "When would you like the fruit delivered?"},
		{say: "a pear", reply: "You have 1 apple and 1 pear in your order. Anything else?", focus: "Fruits"},
	})

	m, err := e.Inspect(ctx, "alice", fruitseller.Name)
	require.NoError(t, err)
	assert.Equal(t, domain.StatePartiallyFulfilled, m.MustResource("Fruits").State)
	assert.Equal(t, domain.StateUnfulfilled, m.Final().State)
}

func TestConversation_Cancel(t *testing.T) {
	e, store := newEngine(t)

	last := converse(t, e, []turn{
		{say: "fruit", reply: "What fruit would you like to order?"},
		{say: "two oranges", reply: "You have 2 oranges in your order. Anything else?"},
		{say: "cancel", reply: "Your order has been cancelled."},
	})
	assert.True(t, last.Finished)

	_, err := store.Load(context.Background(), "alice", fruitseller.Name)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestConversation_NotUnderstood(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	// Outside the dialogue even a valid order is ignored.
	reply, err := e.Process(ctx, "bob", fruitseller.Name, "two apples")
	require.NoError(t, err)
	assert.False(t, reply.Understood)
	assert.Equal(t, domain.NotUnderstood.Display, reply.Answer.Display)

	names, err := store.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, names)

	reply, err = e.Process(ctx, "bob", fruitseller.Name, "fruit")
	require.NoError(t, err)
	assert.True(t, reply.Understood)

	reply, err = e.Process(ctx, "bob", fruitseller.Name, "sing me a song")
	require.NoError(t, err)
	assert.False(t, reply.Understood)
}
