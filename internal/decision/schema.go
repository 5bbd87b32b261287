// Package decision asks a language model to turn a weather observation into
// a structured umbrella/outfit/activity recommendation.
package decision

import (
	"encoding/json"
	"fmt"
	"sync"

	invopopSchema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/i474232898/weather-agent/internal/weather"
)

// Decision is the model's recommendation for the day. Umbrella and Reason
// are required by the schema sent to the model.
type Decision struct {
	Umbrella   bool   `json:"umbrella" jsonschema:"description=true when an umbrella is needed today"`
	OutfitHint string `json:"outfit_hint,omitempty" jsonschema:"description=short practical clothing suggestion"`
	Activity   string `json:"activity,omitempty" jsonschema:"description=optional single activity suggestion"`
	Reason     string `json:"reason" jsonschema:"description=one sentence explaining the decision"`
}

// Consistent reports whether d respects the umbrella rule for obs. A model
// may recommend an umbrella on a dry day, but never skip one on a wet day.
func Consistent(obs weather.Observation, d Decision) bool {
	return d.Umbrella || !weather.RequiresUmbrella(obs)
}

var (
	schemaOnce sync.Once
	schemaJSON string
	compiled   *jsonschema.Schema
	schemaErr  error
)

func loadSchema() {
	reflector := invopopSchema.Reflector{
		Anonymous:                 true,
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	b, err := json.Marshal(reflector.Reflect(&Decision{}))
	if err != nil {
		schemaErr = fmt.Errorf("marshal decision schema: %w", err)
		return
	}
	schemaJSON = string(b)

	compiled, err = jsonschema.CompileString("decision.json", schemaJSON)
	if err != nil {
		schemaErr = fmt.Errorf("compile decision schema: %w", err)
	}
}

// Schema returns the JSON Schema of Decision as compact JSON.
func Schema() string {
	schemaOnce.Do(loadSchema)
	return schemaJSON
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(loadSchema)
	return compiled, schemaErr
}
