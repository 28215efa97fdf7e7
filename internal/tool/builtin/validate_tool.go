package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// ValidateTool checks an iPricing document for internal consistency via the
// Analysis API's validate operation.
type ValidateTool struct {
	analysis *analysis.Client
}

// NewValidateTool builds the tool against an analysis client.
func NewValidateTool(c *analysis.Client) *ValidateTool {
	return &ValidateTool{analysis: c}
}

func (t *ValidateTool) Name() string { return "validate" }
func (t *ValidateTool) Description() string {
	return "Validates an iPricing YAML document for internal consistency, reporting whether it is valid and any errors found."
}

func (t *ValidateTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "yaml", Type: "string", Description: "the iPricing YAML document", Required: true},
		tool.SchemaParam{Name: "solver", Type: "string", Description: "optional solver backend name", Required: false},
	)
}

func (t *ValidateTool) Init(_ context.Context) error { return nil }
func (t *ValidateTool) Close() error                 { return nil }

type validateArgs struct {
	YAML   string `json:"yaml"`
	Solver string `json:"solver,omitempty"`
}

func (t *ValidateTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a validateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("argument parse error: %v", err)}, nil
	}

	jobID, err := t.analysis.SubmitJob(ctx, []byte(a.YAML), analysis.OperationValidate, a.Solver, nil, "")
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("job submission failed: %v", err)}, nil
	}

	result, err := t.analysis.AwaitJob(ctx, jobID)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("job %s failed: %v", jobID, err)}, nil
	}

	return tool.ToolResult{Output: string(result)}, nil
}
