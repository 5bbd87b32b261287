package decision

import (
	"encoding/json"
	"fmt"
)

// DefaultValidate is the default for schema validation of model output.
// Off means only JSON syntax decides whether a reply is usable.
const DefaultValidate = false

// ParseFailure carries the text that could not be turned into a Decision.
type ParseFailure struct {
	Raw string
	Err error
}

func (f *ParseFailure) Error() string {
	return f.Err.Error()
}

func (f *ParseFailure) Unwrap() error {
	return f.Err
}

// Outcome is the result of parsing model output: either a Decision or a
// Failure, never both.
type Outcome struct {
	Decision Decision
	Failure  *ParseFailure
}

func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Parse decodes raw model output, which must be a JSON object. With validate
// set the object must also satisfy the decision schema; without it field
// types are read loosely and missing fields stay empty.
func Parse(raw string, validate bool) Outcome {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return failure(raw, fmt.Errorf("invalid JSON: %w", err))
	}
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return failure(raw, fmt.Errorf("decision must be a JSON object, got %s", jsonKind(doc)))
	}

	if !validate {
		return Outcome{Decision: looseDecision(obj)}
	}

	schema, err := compiledSchema()
	if err != nil {
		return failure(raw, err)
	}
	if err := schema.Validate(doc); err != nil {
		return failure(raw, fmt.Errorf("schema validation failed: %w", err))
	}

	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return failure(raw, fmt.Errorf("decode decision: %w", err))
	}
	return Outcome{Decision: d}
}

func failure(raw string, err error) Outcome {
	return Outcome{Failure: &ParseFailure{Raw: raw, Err: err}}
}

func looseDecision(obj map[string]interface{}) Decision {
	return Decision{
		Umbrella:   truthy(obj["umbrella"]),
		OutfitHint: text(obj["outfit_hint"]),
		Activity:   text(obj["activity"]),
		Reason:     text(obj["reason"]),
	}
}

// truthy treats false, null, zero, "" and empty containers as false.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return true
}

// text returns strings as-is, null as "", and anything else as compact JSON.
func text(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func jsonKind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	}
	return "object"
}
