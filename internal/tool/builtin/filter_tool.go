package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// FilterTool narrows the configuration space of an iPricing document to
// those matching a filter, without selecting a single optimum.
type FilterTool struct {
	analysis *analysis.Client
}

// NewFilterTool builds the tool against an analysis client.
func NewFilterTool(c *analysis.Client) *FilterTool {
	return &FilterTool{analysis: c}
}

func (t *FilterTool) Name() string { return "filter" }
func (t *FilterTool) Description() string {
	return "Narrows an iPricing document's configuration space to those matching a filter (price range, required features, usage limits)."
}

func (t *FilterTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "yaml", Type: "string", Description: "the iPricing YAML document", Required: true},
		tool.SchemaParam{Name: "filter", Type: "object", Description: "JSON filter object: minPrice, maxPrice, features, usageLimits", Required: true},
		tool.SchemaParam{Name: "solver", Type: "string", Description: "optional solver backend name", Required: false},
	)
}

func (t *FilterTool) Init(_ context.Context) error { return nil }
func (t *FilterTool) Close() error                 { return nil }

type filterArgs struct {
	YAML   string          `json:"yaml"`
	Filter json.RawMessage `json:"filter"`
	Solver string          `json:"solver,omitempty"`
}

func (t *FilterTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a filterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("argument parse error: %v", err)}, nil
	}
	return runSolverJob(ctx, t.analysis, a.YAML, a.Filter, analysis.OperationFilter, a.Solver, "")
}
