// Package grounding implements the Grounding Layer (C6): it maps free-form,
// possibly fuzzy user filter terms onto the canonical feature/usageLimit
// names declared in an iPricing YAML document before any downstream call is
// dispatched.
package grounding

import "fmt"

// ValueType is the declared type of a canonical feature or usage limit.
type ValueType string

const (
	ValueBoolean ValueType = "boolean"
	ValueNumeric ValueType = "numeric"
	ValueText    ValueType = "text"
)

// FeatureDef is one canonical feature as declared in the YAML.
type FeatureDef struct {
	Name      string
	ValueType ValueType
}

// LimitDef is one canonical usage limit as declared in the YAML.
type LimitDef struct {
	Name string
	Unit string
}

// Index is the parsed, canonical view of an iPricing document. BuildIndex
// parses the YAML on every call; no Index is cached or shared between calls.
type Index struct {
	Features map[string]FeatureDef // keyed by canonical (as-declared) name
	Limits   map[string]LimitDef
	Plans    []string
	AddOns   []string
}

// LimitRequest is one user-supplied usage-limit constraint. Unit is optional;
// when supplied and the canonical limit declares a unit, the two must match
// ignoring case (no conversion).
type LimitRequest struct {
	Value float64
	Unit  string
}

// Filter is the raw, possibly fuzzy filter object supplied by a tool caller.
type Filter struct {
	MinPrice    *float64
	MaxPrice    *float64
	Features    []string
	UsageLimits map[string]LimitRequest // name -> requested value/unit
}

// Grounded is a Filter whose names have been resolved to canonical form and
// whose values have been type-checked against the index.
type Grounded struct {
	MinPrice    *float64
	MaxPrice    *float64
	Features    []string           // canonical names; presence means "required true"
	UsageLimits map[string]float64 // canonical name -> requested value
}

// Kind enumerates the grounding failure categories named in spec.md §4.6.
type Kind string

const (
	KindUnknownFeature    Kind = "UnknownFeature"
	KindUnknownUsageLimit Kind = "UnknownUsageLimit"
	KindUnitMismatch      Kind = "UnitMismatch"
	KindInvalidRange      Kind = "InvalidRange"
)

// Error is a structured grounding failure. The agent loop surfaces it to the
// LLM as an observation rather than propagating it as a transport error.
type Error struct {
	Kind     Kind
	Name     string
	Expected string
	Provided string
	Detail   string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownFeature:
		return fmt.Sprintf("grounding: unknown feature %q", e.Name)
	case KindUnknownUsageLimit:
		return fmt.Sprintf("grounding: unknown usage limit %q", e.Name)
	case KindUnitMismatch:
		return fmt.Sprintf("grounding: unit mismatch for %q: expected %s, provided %s", e.Name, e.Expected, e.Provided)
	case KindInvalidRange:
		return fmt.Sprintf("grounding: invalid range: %s", e.Detail)
	default:
		return fmt.Sprintf("grounding: %s", e.Detail)
	}
}
