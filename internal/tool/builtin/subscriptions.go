package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// SubscriptionsTool lists the valid plan/add-on configurations for an
// iPricing document, optionally constrained by a filter.
type SubscriptionsTool struct {
	analysis *analysis.Client
}

// NewSubscriptionsTool builds the tool against an analysis client.
func NewSubscriptionsTool(c *analysis.Client) *SubscriptionsTool {
	return &SubscriptionsTool{analysis: c}
}

func (t *SubscriptionsTool) Name() string { return "subscriptions" }
func (t *SubscriptionsTool) Description() string {
	return "Lists valid subscription configurations (plan + add-on combinations) for an iPricing document, optionally constrained by a filter, with their cardinality."
}

func (t *SubscriptionsTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "yaml", Type: "string", Description: "the iPricing YAML document", Required: true},
		tool.SchemaParam{Name: "filter", Type: "object", Description: "optional JSON filter object: minPrice, maxPrice, features, usageLimits", Required: false},
		tool.SchemaParam{Name: "solver", Type: "string", Description: "optional solver backend name", Required: false},
	)
}

func (t *SubscriptionsTool) Init(_ context.Context) error { return nil }
func (t *SubscriptionsTool) Close() error                 { return nil }

type subscriptionsArgs struct {
	YAML   string          `json:"yaml"`
	Filter json.RawMessage `json:"filter,omitempty"`
	Solver string          `json:"solver,omitempty"`
}

func (t *SubscriptionsTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a subscriptionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("argument parse error: %v", err)}, nil
	}
	return runSolverJob(ctx, t.analysis, a.YAML, a.Filter, analysis.OperationSubscriptions, a.Solver, "")
}
