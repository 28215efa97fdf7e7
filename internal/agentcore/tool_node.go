package agentcore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/core"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// ToolNodeImpl implements BaseNode[AgentState, ToolPrep, ToolExecResult].
// It reads LastDecision.ToolCalls and runs every requested call
// concurrently, joining results back in call-declaration order.
type ToolNodeImpl struct {
	registry     *tool.Registry
	perCallLimit time.Duration // 0 = no per-call timeout
}

// NewToolNode builds a ToolNode bound to registry. perCallLimit, if
// non-zero, bounds each fanned-out tool's execution independently of the
// others (spec.md §4.1/§4.3 per-tool timeout).
func NewToolNode(registry *tool.Registry, perCallLimit time.Duration) *ToolNodeImpl {
	return &ToolNodeImpl{registry: registry, perCallLimit: perCallLimit}
}

// Prep resolves every requested call's tool from the registry and
// canonicalizes its arguments to JSON with stable key order.
func (n *ToolNodeImpl) Prep(state *AgentState) []ToolPrep {
	if state.LastDecision == nil || len(state.LastDecision.ToolCalls) == 0 {
		return nil
	}

	reg := state.ToolRegistry
	if reg == nil {
		reg = n.registry
	}

	calls := make([]ResolvedCall, 0, len(state.LastDecision.ToolCalls))
	for _, req := range state.LastDecision.ToolCalls {
		argsJSON, err := canonicalJSON(req.Arguments)
		if err != nil {
			log.Printf("[ToolNode] failed to canonicalize args for %s: %v", req.Name, err)
			argsJSON = []byte("{}")
		}
		resolved, _ := reg.Get(req.Name)
		calls = append(calls, ResolvedCall{
			Name:         req.Name,
			Args:         argsJSON,
			CallID:       req.CallID,
			ResolvedTool: resolved,
		})
	}

	return []ToolPrep{{
		CorrelationID: state.lastCorrelation,
		Calls:         calls,
	}}
}

// Exec runs every call in prep.Calls concurrently and joins the results in
// declaration order, per spec.md §4.7's fan-out policy.
func (n *ToolNodeImpl) Exec(ctx context.Context, prep ToolPrep) (ToolExecResult, error) {
	results := make([]ToolCallResult, len(prep.Calls))

	var wg sync.WaitGroup
	for i, call := range prep.Calls {
		wg.Add(1)
		go func(i int, call ResolvedCall) {
			defer wg.Done()
			results[i] = n.runOne(ctx, call)
		}(i, call)
	}
	wg.Wait()

	return ToolExecResult{Results: results}, nil
}

func (n *ToolNodeImpl) runOne(ctx context.Context, call ResolvedCall) ToolCallResult {
	start := time.Now()

	if call.ResolvedTool == nil {
		return ToolCallResult{
			Name: call.Name, CallID: call.CallID,
			Error:      (&tool.ToolNotFoundError{Name: call.Name}).Error(),
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	if err := tool.ValidateArguments(call.ResolvedTool, json.RawMessage(call.Args)); err != nil {
		return ToolCallResult{
			Name: call.Name, CallID: call.CallID,
			Error:      fmt.Sprintf("ArgumentInvalid: %v", err),
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	callCtx := ctx
	if n.perCallLimit > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, n.perCallLimit)
		defer cancel()
	}

	result, err := call.ResolvedTool.Execute(callCtx, json.RawMessage(call.Args))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return ToolCallResult{
			Name: call.Name, CallID: call.CallID,
			Error:      fmt.Sprintf("execution failed: %v", err),
			DurationMs: elapsed,
		}
	}

	return ToolCallResult{
		Name: call.Name, CallID: call.CallID,
		Output: result.Output, Error: result.Error,
		DurationMs: elapsed,
	}
}

// ExecFallback returns a single synthetic error observation; core.Node
// only calls this when Exec itself returns an error, which runOne never
// does (tool failures are carried as ToolCallResult.Error instead).
func (n *ToolNodeImpl) ExecFallback(err error) ToolExecResult {
	return ToolExecResult{Results: []ToolCallResult{{Error: fmt.Sprintf("tool fan-out failed: %v", err)}}}
}

// Post appends one StepRecord per fanned-out call, in call-declaration
// order, and routes back to DecideNode.
func (n *ToolNodeImpl) Post(state *AgentState, prep []ToolPrep, results ...ToolExecResult) core.Action {
	if len(results) == 0 || len(prep) == 0 {
		return core.ActionDefault
	}

	correlation := prep[0].CorrelationID
	for i, r := range results[0].Results {
		step := StepRecord{
			Index:         len(state.StepHistory),
			Type:          "tool",
			CorrelationID: correlation,
			ToolName:      r.Name,
			ToolCallID:    r.CallID,
			Observation:   r.Output,
			IsError:       r.Error != "",
			DurationMs:    r.DurationMs,
		}
		if i < len(prep[0].Calls) {
			step.Input = string(prep[0].Calls[i].Args)
		}
		if r.Error != "" {
			if step.Observation != "" {
				step.Observation = fmt.Sprintf("%s\n\nerror: %s", step.Observation, r.Error)
			} else {
				step.Observation = fmt.Sprintf("error: %s", r.Error)
			}
		}
		state.StepHistory = append(state.StepHistory, step)
		if state.OnStepComplete != nil {
			state.OnStepComplete(step)
		}
		log.Printf("[ToolNode] %s: %s", r.Name, truncate(step.Observation, 120))
	}

	return core.ActionDefault // back to DecideNode
}

// canonicalJSON marshals m with stable (sorted) key order, matching
// spec.md §4.7's determinism requirement for logged/transcript tool args.
// encoding/json already sorts map keys when marshaling map[string]any, so
// this is a thin documented wrapper rather than a hand-rolled sorter.
func canonicalJSON(m map[string]any) ([]byte, error) {
	if m == nil {
		m = map[string]any{}
	}
	return json.Marshal(m)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
