package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/isa-group/harvey-agent-core/internal/grounding"
)

// filterWire is the wire shape of a tool call's filter object (spec.md
// §4.1): minPrice/maxPrice plus features: [name] and
// usageLimits: [{name: number}].
type filterWire struct {
	MinPrice    *float64                 `json:"minPrice,omitempty"`
	MaxPrice    *float64                 `json:"maxPrice,omitempty"`
	Features    []string                 `json:"features,omitempty"`
	UsageLimits []map[string]json.Number `json:"usageLimits,omitempty"`
}

// parseFilter decodes the wire filter object into a grounding.Filter ready
// for grounding.Ground. Absent entirely (raw == nil), it returns a
// zero-value Filter that grounds to an empty Grounded with no error.
func parseFilter(raw json.RawMessage) (grounding.Filter, error) {
	if len(raw) == 0 {
		return grounding.Filter{}, nil
	}
	var w filterWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return grounding.Filter{}, fmt.Errorf("invalid filter object: %w", err)
	}

	f := grounding.Filter{
		MinPrice: w.MinPrice,
		MaxPrice: w.MaxPrice,
		Features: w.Features,
	}
	if len(w.UsageLimits) > 0 {
		f.UsageLimits = make(map[string]grounding.LimitRequest, len(w.UsageLimits))
		for _, entry := range w.UsageLimits {
			for name, num := range entry {
				v, err := num.Float64()
				if err != nil {
					return grounding.Filter{}, fmt.Errorf("usage limit %q: %w", name, err)
				}
				f.UsageLimits[name] = grounding.LimitRequest{Value: v}
			}
		}
	}
	return f, nil
}

// groundedToMap converts a Grounded filter back to the plain map shape the
// Analysis API adapter expects as its "filters" job parameter.
func groundedToMap(g *grounding.Grounded) map[string]any {
	out := map[string]any{}
	if g.MinPrice != nil {
		out["minPrice"] = *g.MinPrice
	}
	if g.MaxPrice != nil {
		out["maxPrice"] = *g.MaxPrice
	}
	if len(g.Features) > 0 {
		out["features"] = g.Features
	}
	if len(g.UsageLimits) > 0 {
		out["usageLimits"] = g.UsageLimits
	}
	return out
}

// groundingToolError renders a grounding.Error as a tool.ToolResult error
// string the LLM can recover from, per spec.md §4.6 / §4.7.
func groundingToolError(err error) string {
	if gerr, ok := err.(*grounding.Error); ok {
		return gerr.Error()
	}
	return err.Error()
}
