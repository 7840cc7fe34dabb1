package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/dialogues/fruitseller"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	d, err := fruitseller.New()
	require.NoError(t, err)
	engine, err := parley.New(parley.WithDialogue(d))
	require.NoError(t, err)
	return NewServer(engine)
}

func TestHandleTurnAndState(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	state, err := s.handleState(ctx, mcp.CallToolRequest{}, StateArgs{Dialogue: "fruitseller", ClientID: "alice"})
	require.NoError(t, err)
	assert.False(t, state.Active)
	assert.Empty(t, state.States)

	resp, err := s.handleTurn(ctx, mcp.CallToolRequest{}, TurnArgs{Dialogue: "fruitseller", ClientID: "alice", Utterance: "fruit"})
	require.NoError(t, err)
	assert.True(t, resp.Understood)
	assert.Equal(t, "Fruits", resp.Focus)
	assert.Equal(t, resp.Answer, resp.Voice)

	_, err = s.handleTurn(ctx, mcp.CallToolRequest{}, TurnArgs{Dialogue: "fruitseller", ClientID: "alice", Utterance: "3 apples"})
	require.NoError(t, err)

	state, err = s.handleState(ctx, mcp.CallToolRequest{}, StateArgs{Dialogue: "fruitseller", ClientID: "alice"})
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, domain.StatePartiallyFulfilled, state.States["Fruits"])
}

func TestHandleTurn_UnknownDialogue(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handleTurn(context.Background(), mcp.CallToolRequest{}, TurnArgs{Dialogue: "nope", ClientID: "alice", Utterance: "hi"})
	assert.ErrorIs(t, err, domain.ErrDialogueNotFound)
}

func TestHandleReset(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, err := s.handleTurn(ctx, mcp.CallToolRequest{}, TurnArgs{Dialogue: "fruitseller", ClientID: "alice", Utterance: "fruit"})
	require.NoError(t, err)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"dialogue": "fruitseller", "client_id": "alice"}
	res, err := s.handleReset(ctx, req)
	require.NoError(t, err)
	assert.False(t, res.IsError)

	state, err := s.handleState(ctx, mcp.CallToolRequest{}, StateArgs{Dialogue: "fruitseller", ClientID: "alice"})
	require.NoError(t, err)
	assert.False(t, state.Active)

	req.Params.Arguments = map[string]any{"dialogue": "nope", "client_id": "alice"}
	res, err = s.handleReset(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestReadDialogues(t *testing.T) {
	s := newTestServer(t)
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "parley://dialogues"

	contents, err := s.readDialogues(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"name":"fruitseller"`)
	assert.Contains(t, text.Text, `"DateTime"`)
}
