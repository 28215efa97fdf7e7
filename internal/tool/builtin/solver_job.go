package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
	"github.com/isa-group/harvey-agent-core/internal/grounding"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// solverJobOutput is the envelope solver-family tools (subscriptions,
// optimal, filter) emit as their ToolResult.Output, so a caller that needs
// the grounded filter (the chat facade's plan field) doesn't have to
// re-parse the raw Analysis API result for it.
type solverJobOutput struct {
	Result         json.RawMessage `json:"result"`
	GroundedFilter json.RawMessage `json:"grounded_filter,omitempty"`
}

// runSolverJob grounds rawFilter against yaml's own iPricing index, then
// submits and awaits an Analysis API job for op. Grounding failures never
// reach the adapter; they are returned as a recoverable tool-result error
// (spec.md §4.7).
func runSolverJob(ctx context.Context, client *analysis.Client, yamlText string, rawFilter json.RawMessage, op analysis.Operation, solver string, objective analysis.Objective) (tool.ToolResult, error) {
	filter, err := parseFilter(rawFilter)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}

	var filters map[string]any
	var groundedJSON json.RawMessage
	if rawFilter != nil {
		idx, err := grounding.BuildIndex(yamlText)
		if err != nil {
			return tool.ToolResult{Error: fmt.Sprintf("failed to parse pricing document: %v", err)}, nil
		}
		grounded, err := grounding.Ground(idx, filter)
		if err != nil {
			return tool.ToolResult{Error: groundingToolError(err)}, nil
		}
		filters = groundedToMap(grounded)
		if b, err := json.Marshal(filters); err == nil {
			groundedJSON = b
		}
	}

	jobID, err := client.SubmitJob(ctx, []byte(yamlText), op, solver, filters, objective)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("job submission failed: %v", err)}, nil
	}

	result, err := client.AwaitJob(ctx, jobID)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("job %s failed: %v", jobID, err)}, nil
	}

	envelope, err := json.Marshal(solverJobOutput{Result: result, GroundedFilter: groundedJSON})
	if err != nil {
		return tool.ToolResult{Output: string(result)}, nil
	}
	return tool.ToolResult{Output: string(envelope)}, nil
}
