package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceState_Ladder(t *testing.T) {
	assert.True(t, domain.StateUnfulfilled.Below(domain.StatePartiallyFulfilled))
	assert.True(t, domain.StateFulfilled.Below(domain.StateConfirmed))
	assert.False(t, domain.StateConfirmed.Below(domain.StateConfirmed))
	assert.False(t, domain.StateUnfulfilled.Below(domain.StateSkipped), "terminal markers are off the ladder")
	assert.False(t, domain.StateCancelled.Below(domain.StateConfirmed))
	assert.False(t, domain.StateSkipped.OnLadder())
}

func TestResourceState_TextRoundTrip(t *testing.T) {
	in := map[string]domain.ResourceState{"a": domain.StatePartiallyFulfilled, "b": domain.StateCancelled}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"partially_fulfilled","b":"cancelled"}`, string(raw))

	var out map[string]domain.ResourceState
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	var bad domain.ResourceState
	assert.Error(t, bad.UnmarshalText([]byte("halfway")))
}

func TestParseKind(t *testing.T) {
	cases := map[string]domain.Kind{
		"":                domain.KindPlain,
		"list":            domain.KindList,
		"ListResource":    domain.KindList,
		"WrapperResource": domain.KindWrapper,
		"FinalResource":   domain.KindFinal,
		" or ":            domain.KindOr,
	}
	for in, want := range cases {
		got, err := domain.ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := domain.ParseKind("Spaceship")
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestResource_CloneIsDeep(t *testing.T) {
	r := &domain.Resource{
		Name:     "Fruits",
		Kind:     domain.KindList,
		Requires: []string{"A"},
		Prompts:  map[string]string{"initial": "What?"},
		Data:     []any{map[string]any{"name": "apple", "quantity": 1.0}},
	}
	c := r.Clone()
	c.Requires[0] = "B"
	c.Prompts["initial"] = "Changed"
	c.Data.([]any)[0].(map[string]any)["name"] = "pear"

	assert.Equal(t, "A", r.Requires[0])
	assert.Equal(t, "What?", r.Prompt("initial"))
	assert.Equal(t, "apple", r.ListItems()[0].Name)
}

func TestPayload_SurvivesJSON(t *testing.T) {
	list := &domain.Resource{Name: "Fruits"}
	list.SetListItems([]domain.ListItem{{Name: "apple", Quantity: 2}})

	date := &domain.Resource{Name: "Date"}
	date.SetDate(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	clock := &domain.Resource{Name: "Time"}
	clock.SetTime(time.Date(0, 1, 1, 17, 30, 0, 0, time.UTC))

	yes := &domain.Resource{Name: "Ok"}
	yes.SetYesNo(true)

	for _, r := range []*domain.Resource{list, date, clock, yes} {
		raw, err := json.Marshal(r)
		require.NoError(t, err)
		var back domain.Resource
		require.NoError(t, json.Unmarshal(raw, &back))
		*r = back
	}

	assert.Equal(t, []domain.ListItem{{Name: "apple", Quantity: 2}}, list.ListItems())

	d, ok := date.Date()
	require.True(t, ok)
	tm, ok := clock.Time()
	require.True(t, ok)
	assert.Equal(t, "2026-03-14 17:30", domain.CombineDateTime(d, tm).Format("2006-01-02 15:04"))

	v, ok := yes.YesNo()
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = (&domain.Resource{}).Number()
	assert.False(t, ok)
}

func TestTemplate_Instantiate(t *testing.T) {
	tmpl := &domain.Template{
		Name: "shop",
		Resources: []*domain.Resource{
			{Name: "Final", Kind: domain.KindFinal, State: domain.StateConfirmed, Data: "stale"},
			{Name: "Thing"},
		},
	}
	got := tmpl.Instantiate()
	require.Len(t, got, 2)
	assert.Equal(t, domain.StateUnfulfilled, got[0].State)
	assert.Nil(t, got[0].Data)
	assert.Equal(t, domain.KindPlain, got[1].Kind)
	assert.Equal(t, domain.DefaultExpiration, tmpl.Expiration())

	tmpl.ExpirationSeconds = 60
	assert.Equal(t, time.Minute, tmpl.Expiration())
}
