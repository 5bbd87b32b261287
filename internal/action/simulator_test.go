package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-agent/internal/decision"
)

func TestSimulate_UmbrellaAndOutfit(t *testing.T) {
	got := Simulate(decision.Decision{Umbrella: true, OutfitHint: "rain jacket", Reason: "rain expected"})

	assert.Equal(t, []string{
		"notify_user:Carry umbrella",
		"notify_user:Outfit hint -> rain jacket",
	}, got.Actions)
}

func TestSimulate_Order(t *testing.T) {
	got := Simulate(decision.Decision{
		Activity:   "indoor gym",
		OutfitHint: "light layers",
		Umbrella:   true,
		Reason:     "storms",
	})

	assert.Equal(t, []string{
		UmbrellaReminder,
		OutfitHint("light layers"),
		ActivitySuggestion("indoor gym"),
	}, got.Actions)
}

func TestSimulate_ActivityOnly(t *testing.T) {
	got := Simulate(decision.Decision{Activity: "cycling", Reason: "clear skies"})
	assert.Equal(t, []string{"suggest_activity:cycling"}, got.Actions)
}

func TestSimulate_NothingToDo(t *testing.T) {
	got := Simulate(decision.Decision{Reason: "nothing notable"})
	assert.Empty(t, got.Actions)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"actions":[]}`, string(b))
}
