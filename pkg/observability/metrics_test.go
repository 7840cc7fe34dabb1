package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(dialogue string, understood, finished bool, err error) *domain.TurnEvent {
	return &domain.TurnEvent{
		EventBase:  domain.EventBase{Type: domain.EventTurnEnd, Dialogue: dialogue},
		ClientID:   "alice",
		Understood: understood,
		Finished:   finished,
		Duration:   15 * time.Millisecond,
		Err:        err,
	}
}

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTurnEnd(ctx, turn("fruitseller", true, false, nil))
	hooks.OnTurnEnd(ctx, turn("fruitseller", false, false, nil))
	hooks.OnTurnEnd(ctx, turn("fruitseller", true, true, nil))
	hooks.OnTurnEnd(ctx, turn("fruitseller", true, false, errors.New("boom")))
	hooks.OnStateChange(&domain.StateEvent{
		EventBase: domain.EventBase{Dialogue: "fruitseller"},
		Resource:  "Fruits",
		To:        domain.StateConfirmed,
	})
	hooks.OnCascade(&domain.CascadeEvent{EventBase: domain.EventBase{Dialogue: "fruitseller"}, Origin: "Fruits"})
	hooks.OnTimeout(ctx, turn("fruitseller", false, false, nil))

	expected := `
# HELP parley_turns_total Total number of processed turns
# TYPE parley_turns_total counter
parley_turns_total{dialogue="fruitseller",outcome="answered"} 1
parley_turns_total{dialogue="fruitseller",outcome="error"} 1
parley_turns_total{dialogue="fruitseller",outcome="finished"} 1
parley_turns_total{dialogue="fruitseller",outcome="not_understood"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "parley_turns_total"))

	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "parley_state_changes_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "parley_cascades_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Registry(), "parley_timeouts_total"))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnTurnEnd(context.Background(), turn("fruitseller", true, false, nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `parley_turns_total{dialogue="fruitseller",outcome="answered"} 1`)
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnTurnEnd: func(context.Context, *domain.TurnEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnTurnEnd:     func(context.Context, *domain.TurnEvent) { calls = append(calls, "b") },
		OnStateChange: func(*domain.StateEvent) { calls = append(calls, "b-state") },
	}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	hooks.OnTurnEnd(context.Background(), turn("x", true, false, nil))
	hooks.OnStateChange(&domain.StateEvent{})

	assert.Equal(t, []string{"a", "b", "b-state"}, calls)
	assert.Nil(t, hooks.OnCascade)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)

	hooks.OnTurnEnd(context.Background(), turn("fruitseller", false, false, nil))
	hooks.OnStateChange(&domain.StateEvent{
		EventBase: domain.EventBase{Dialogue: "fruitseller"},
		Resource:  "Date",
		From:      domain.StateUnfulfilled,
		To:        domain.StateFulfilled,
	})

	out := buf.String()
	assert.Contains(t, out, "outcome=not_understood")
	assert.Contains(t, out, "resource=Date")
	assert.Contains(t, out, "to=fulfilled")
}
