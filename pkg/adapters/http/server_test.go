package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/dialogues/fruitseller"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	d, err := fruitseller.New()
	require.NoError(t, err)
	engine, err := parley.New(parley.WithDialogue(d))
	require.NoError(t, err)
	return NewHandler(engine, opts...)
}

func postTurn(t *testing.T, h http.Handler, dialogue, client, utterance string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(TurnRequest{ClientID: client, Utterance: utterance})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/dialogues/"+dialogue+"/turns", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := get(h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(h, "/info")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"app":"parley-http"`)

	w = get(h, "/dialogues")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["fruitseller"]`, w.Body.String())
}

func TestPostTurn(t *testing.T) {
	h := newTestHandler(t)

	w := postTurn(t, h, "fruitseller", "alice", "I want to buy fruit")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reply domain.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.True(t, reply.Understood)
	assert.Equal(t, "Fruits", reply.Focus)
	assert.Equal(t, "What fruit would you like to order?", reply.Answer.Display)
	require.NotNil(t, reply.Changes)
	assert.Equal(t, "fruitseller", reply.Changes.DialogueName)
}

func TestPostTurn_Errors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name     string
		dialogue string
		client   string
		input    string
		code     int
	}{
		{"unknown dialogue", "pizzeria", "alice", "hello", http.StatusNotFound},
		{"missing client", "fruitseller", "", "hello", http.StatusBadRequest},
		{"oversized input", "fruitseller", "alice", strings.Repeat("a", 5000), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postTurn(t, h, tt.dialogue, tt.client, tt.input)
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/dialogues/fruitseller/turns", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStateAndReset(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusOK, postTurn(t, h, "fruitseller", "alice", "fruit").Code)
	require.Equal(t, http.StatusOK, postTurn(t, h, "fruitseller", "alice", "two pears").Code)

	w := get(h, "/dialogues/fruitseller/clients/alice")
	require.Equal(t, http.StatusOK, w.Code)
	var state StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.True(t, state.Active)
	assert.Equal(t, "Fruits", state.Focus)
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, domain.StatePartiallyFulfilled, state.Snapshot.Resources["Fruits"].State)

	req := httptest.NewRequest(http.MethodDelete, "/dialogues/fruitseller/clients/alice", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = get(h, "/dialogues/fruitseller/clients/alice")
	require.Equal(t, http.StatusOK, w.Code)
	state = StateResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.False(t, state.Active)
	assert.Nil(t, state.Snapshot)
}

func TestGetGraph(t *testing.T) {
	h := newTestHandler(t)

	w := get(h, "/dialogues/fruitseller/graph")
	require.Equal(t, http.StatusOK, w.Code)
	var nodes []GraphNode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nodes))
	require.Len(t, nodes, 5)
	assert.Equal(t, "Final", nodes[4].Name)
	assert.Equal(t, []string{"Fruits", "DateTime"}, nodes[4].Requires)

	assert.Equal(t, http.StatusNotFound, get(h, "/dialogues/nope/graph").Code)
}

func TestMetricsMount(t *testing.T) {
	h := newTestHandler(t)
	assert.Equal(t, http.StatusNotFound, get(h, "/metrics").Code)

	h = newTestHandler(t, WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("parley_turns_total 0\n"))
	})))
	w := get(h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "parley_turns_total")
}

func TestSubscribeEvents_Client(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?client_id=alice", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	body, _ := json.Marshal(TurnRequest{ClientID: "alice", Utterance: "fruit"})
	turn, err := http.Post(srv.URL+"/dialogues/fruitseller/turns", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	turn.Body.Close()
	require.Equal(t, http.StatusOK, turn.StatusCode)

	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			assert.Contains(t, lines.Text(), `"dialogue_name":"fruitseller"`)
			return
		}
	}
	t.Fatal("no diff received on the event stream")
}

func TestClosedEvent(t *testing.T) {
	for _, dialogue := range []string{"fruitseller", "a\x01b", "caf\u00e9 \"menu\""} {
		raw, err := closedEvent(dialogue)
		require.NoError(t, err)

		var diff domain.SnapshotDiff
		require.NoError(t, json.Unmarshal([]byte(raw), &diff), raw)
		assert.Equal(t, dialogue, diff.DialogueName)
		assert.True(t, diff.Closed)
	}
}

func TestSubscribeEvents_ResetBroadcastsClosed(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?client_id=bob", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())

	del, err := http.NewRequest(http.MethodDelete, srv.URL+"/dialogues/fruitseller/clients/bob", nil)
	require.NoError(t, err)
	out, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	out.Body.Close()
	require.Equal(t, http.StatusNoContent, out.StatusCode)

	for lines.Scan() {
		if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok && strings.HasPrefix(data, "{") {
			var diff domain.SnapshotDiff
			require.NoError(t, json.Unmarshal([]byte(data), &diff))
			assert.Equal(t, "fruitseller", diff.DialogueName)
			assert.True(t, diff.Closed)
			return
		}
	}
	t.Fatal("no closed event received on the event stream")
}

func TestSubscribeEvents_ReloadsNeedWatchableLoader(t *testing.T) {
	h := newTestHandler(t)
	w := get(h, "/events")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("alice")
	assert.Equal(t, 1, sm.Subscribers("alice"))

	sm.Broadcast("alice", "hello")
	sm.Broadcast("bob", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("alice"))
	_, open := <-ch
	assert.False(t, open)
}
