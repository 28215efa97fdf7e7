package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// SummaryTool computes plan/add-on/feature/usage-limit counts for an
// iPricing document via the Analysis API's synchronous summary endpoint.
type SummaryTool struct {
	analysis *analysis.Client
}

// NewSummaryTool builds the tool against an analysis client.
func NewSummaryTool(c *analysis.Client) *SummaryTool {
	return &SummaryTool{analysis: c}
}

func (t *SummaryTool) Name() string { return "summary" }
func (t *SummaryTool) Description() string {
	return "Computes summary statistics (plan count, add-on count, feature count, usage limit count) for an iPricing YAML document."
}

func (t *SummaryTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "yaml", Type: "string", Description: "the iPricing YAML document", Required: true},
	)
}

func (t *SummaryTool) Init(_ context.Context) error { return nil }
func (t *SummaryTool) Close() error                 { return nil }

type summaryArgs struct {
	YAML string `json:"yaml"`
}

func (t *SummaryTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a summaryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("argument parse error: %v", err)}, nil
	}

	result, err := t.analysis.Summary(ctx, []byte(a.YAML))
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("summary failed: %v", err)}, nil
	}

	out, _ := json.Marshal(result)
	return tool.ToolResult{Output: string(out)}, nil
}
