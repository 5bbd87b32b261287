// Package action turns a decision into the downstream effects the agent
// would trigger. Delivery is simulated; the descriptors are only logged and
// remembered.
package action

import "github.com/i474232898/weather-agent/internal/decision"

const (
	UmbrellaReminder = "notify_user:Carry umbrella"
	outfitPrefix     = "notify_user:Outfit hint -> "
	activityPrefix   = "suggest_activity:"
)

// Result lists action descriptors in the order they were taken.
type Result struct {
	Actions []string `json:"actions"`
}

// OutfitHint returns the descriptor for an outfit notification.
func OutfitHint(hint string) string { return outfitPrefix + hint }

// ActivitySuggestion returns the descriptor for an activity suggestion.
func ActivitySuggestion(activity string) string { return activityPrefix + activity }

// Simulate maps d to actions: umbrella reminder, outfit hint, activity
// suggestion, each only when the decision asks for it.
func Simulate(d decision.Decision) Result {
	actions := make([]string, 0, 3)
	if d.Umbrella {
		actions = append(actions, UmbrellaReminder)
	}
	if d.OutfitHint != "" {
		actions = append(actions, OutfitHint(d.OutfitHint))
	}
	if d.Activity != "" {
		actions = append(actions, ActivitySuggestion(d.Activity))
	}
	return Result{Actions: actions}
}
