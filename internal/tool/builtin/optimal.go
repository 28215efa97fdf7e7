package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// OptimalTool finds the single best configuration for an iPricing document
// under a filter and an optimization objective.
type OptimalTool struct {
	analysis *analysis.Client
}

// NewOptimalTool builds the tool against an analysis client.
func NewOptimalTool(c *analysis.Client) *OptimalTool {
	return &OptimalTool{analysis: c}
}

func (t *OptimalTool) Name() string { return "optimal" }
func (t *OptimalTool) Description() string {
	return "Finds the single best subscription configuration for an iPricing document, constrained by a filter and optimized per the given objective (minimize or maximize cost)."
}

func (t *OptimalTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "yaml", Type: "string", Description: "the iPricing YAML document", Required: true},
		tool.SchemaParam{Name: "filter", Type: "object", Description: "optional JSON filter object: minPrice, maxPrice, features, usageLimits", Required: false},
		tool.SchemaParam{Name: "objective", Type: "string", Description: "optimization direction", Required: true, Enum: []string{"minimize", "maximize"}},
		tool.SchemaParam{Name: "solver", Type: "string", Description: "optional solver backend name", Required: false},
	)
}

func (t *OptimalTool) Init(_ context.Context) error { return nil }
func (t *OptimalTool) Close() error                 { return nil }

type optimalArgs struct {
	YAML      string          `json:"yaml"`
	Filter    json.RawMessage `json:"filter,omitempty"`
	Objective string          `json:"objective"`
	Solver    string          `json:"solver,omitempty"`
}

func (t *OptimalTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a optimalArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("argument parse error: %v", err)}, nil
	}

	var objective analysis.Objective
	switch a.Objective {
	case "minimize":
		objective = analysis.ObjectiveMinimize
	case "maximize":
		objective = analysis.ObjectiveMaximize
	default:
		return tool.ToolResult{Error: fmt.Sprintf("invalid objective %q: must be minimize or maximize", a.Objective)}, nil
	}

	return runSolverJob(ctx, t.analysis, a.YAML, a.Filter, analysis.OperationOptimal, a.Solver, objective)
}
