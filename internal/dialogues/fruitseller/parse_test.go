package fruitseller

import (
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func TestParseQuery_Intents(t *testing.T) {
	tests := []struct {
		input string
		want  Intent
	}{
		{"I want to buy fruit", IntentStart},
		{"Fruit!", IntentStart},
		{"cancel the order", IntentCancel},
		{"What do you have?", IntentOptions},
		{"status", IntentStatus},
		{"Yes please.", IntentYes},
		{"no thanks", IntentNo},
		{"that's all", IntentNo},
		{"remove the bananas", IntentRemove},
		{"replace the apples with pears", IntentChange},
		{"two apples and a banana", IntentAdd},
		{"tomorrow at 3pm", IntentDate},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, ok, err := ParseQuery(tt.input, now)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, q.Intent)
		})
	}
}

func TestParseQuery_Unrelated(t *testing.T) {
	for _, input := range []string{"", "   ", "what is the weather like", "remove everything"} {
		_, ok, err := ParseQuery(input, now)
		require.NoError(t, err)
		assert.False(t, ok, input)
	}
}

func TestParseQuery_Fruits(t *testing.T) {
	q, ok, err := ParseQuery("Can I get 3 apples, a pear and oranges", now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []domain.ListItem{
		{Name: "apple", Quantity: 3},
		{Name: "pear", Quantity: 1},
		{Name: "orange", Quantity: 1},
	}, q.Fruits)

	q, _, _ = ParseQuery("change two bananas to a dozen pears", now)
	assert.Equal(t, []domain.ListItem{{Name: "banana", Quantity: 2}}, q.Replace)
	assert.Equal(t, []domain.ListItem{{Name: "pear", Quantity: 12}}, q.Fruits)
}

func TestParseQuery_Dates(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2026-06-10", "2026-06-10"},
		{"today", "2026-05-01"},
		{"tomorrow", "2026-05-02"},
		{"may 20th", "2026-05-20"},
		{"the 3rd of june", "2026-06-03"},
		// Past days roll over to next year.
		{"january 5", "2027-01-05"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, ok, err := ParseQuery(tt.input, now)
			require.NoError(t, err)
			require.True(t, ok)
			require.NotNil(t, q.Date)
			assert.Nil(t, q.Time)
			assert.Equal(t, tt.want, q.Date.Format(domain.DateLayout))
		})
	}
}

func TestParseQuery_Times(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"at 14:30", "14:30"},
		{"3pm", "15:00"},
		{"12 am", "00:00"},
		{"9:15 am", "09:15"},
		{"noon", "12:00"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, ok, err := ParseQuery(tt.input, now)
			require.NoError(t, err)
			require.True(t, ok)
			require.NotNil(t, q.Time)
			assert.Equal(t, tt.want, q.Time.Format(domain.TimeLayout))
		})
	}

	for _, input := range []string{"25:00", "10:75", "13pm"} {
		_, ok, err := ParseQuery(input, now)
		assert.True(t, ok, input)
		assert.ErrorIs(t, err, errInvalidTime, input)
	}
}

func TestDescribeItems(t *testing.T) {
	assert.Equal(t, "nothing", DescribeItems(nil))
	assert.Equal(t, "1 pear", DescribeItems([]domain.ListItem{{Name: "pear", Quantity: 1}}))
	assert.Equal(t, "2 apples, 1 pear and 3 oranges", DescribeItems([]domain.ListItem{
		{Name: "apple", Quantity: 2},
		{Name: "pear", Quantity: 1},
		{Name: "orange", Quantity: 3},
	}))
}
