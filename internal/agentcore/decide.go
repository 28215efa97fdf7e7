package agentcore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/isa-group/harvey-agent-core/internal/core"
	"github.com/isa-group/harvey-agent-core/internal/llm"
	"github.com/isa-group/harvey-agent-core/internal/pricing"
)

// decideTransportRetries is how many times a transport-level LLM call
// failure is retried before the turn fails, per spec.md §4.7.
const decideTransportRetries = 2

// DecideNode implements BaseNode[AgentState, DecidePrep, Decision]. It is
// the central router of the ReAct loop: at every step it gives the model
// the conversation, the pricing context in scope, the rolling transcript,
// and the tool catalogue, and gets back either a final answer or a batch
// of tool calls.
type DecideNode struct {
	llmProvider llm.LLMProvider
}

func NewDecideNode(provider llm.LLMProvider) *DecideNode {
	return &DecideNode{llmProvider: provider}
}

// Prep reads the turn state and builds the LLM-facing context for one step.
func (n *DecideNode) Prep(state *AgentState) []DecidePrep {
	return []DecidePrep{{
		Problem:             state.Problem,
		ConversationHistory: state.ConversationHistory,
		PricingSummary:      summarizePricingContext(state.PricingContext),
		StepSummary:         buildStepSummary(state.StepHistory),
		ToolDefinitions:     state.ToolRegistry.GenerateToolDefinitions(),
		StepCount:           len(state.StepHistory),
		StepBudget:          state.StepBudget,
		LoopDetected:        (&LoopDetector{}).Check(state.StepHistory),
	}}
}

// Exec calls the LLM with the tool catalogue and extracts a Decision,
// retrying transport failures with backoff before giving up.
func (n *DecideNode) Exec(ctx context.Context, prep DecidePrep) (Decision, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemPrompt()},
		{Role: llm.RoleUser, Content: buildDecidePrompt(prep)},
	}

	var lastErr error
	for attempt := 0; attempt <= decideTransportRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 150 * time.Millisecond
			log.Printf("[Decide] retrying LLM call (attempt %d/%d) after %v: %v", attempt, decideTransportRetries, backoff, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Decision{}, ctx.Err()
			}
		}

		resp, err := n.llmProvider.CallLLMWithTools(ctx, messages, prep.ToolDefinitions)
		if err != nil {
			lastErr = err
			continue
		}
		return decisionFromResponse(resp), nil
	}

	return Decision{}, fmt.Errorf("decide: LLM call failed after %d retries: %w", decideTransportRetries, lastErr)
}

// decisionFromResponse extracts a Decision from an LLM response, carrying
// every requested tool call for fan-out (the teacher only ever kept the
// first; this generalizes to the full batch).
func decisionFromResponse(resp llm.Message) Decision {
	if len(resp.ToolCalls) > 0 {
		calls := make([]ToolCallRequest, 0, len(resp.ToolCalls))
		for _, tc := range resp.ToolCalls {
			var params map[string]any
			if err := json.Unmarshal(tc.Arguments, &params); err != nil {
				params = map[string]any{}
			}
			calls = append(calls, ToolCallRequest{Name: tc.Name, Arguments: params, CallID: tc.ID})
		}
		return Decision{
			Action:    "tool",
			Reason:    fmt.Sprintf("calling %d tool(s)", len(calls)),
			ToolCalls: calls,
		}
	}

	return Decision{Action: "answer", Answer: strings.TrimSpace(resp.Content)}
}

// Post writes the decision to state, records a step, and routes to the
// next node, enforcing the step budget and the loop-detector override.
func (n *DecideNode) Post(state *AgentState, prep []DecidePrep, results ...Decision) core.Action {
	if len(results) == 0 {
		state.Solution = "the agent could not reach a decision"
		state.Status = StatusFailed
		return core.ActionAnswer
	}

	decision := results[0]
	state.LastDecision = &decision
	state.lastCorrelation = uuid.New().String()

	step := StepRecord{
		Index:         len(state.StepHistory),
		Type:          "decide",
		CorrelationID: state.lastCorrelation,
		Thought:       decision.Reason,
		Observation:   decision.Answer,
	}
	state.StepHistory = append(state.StepHistory, step)
	if state.OnStepComplete != nil {
		state.OnStepComplete(step)
	}
	log.Printf("[Decide] step %d: action=%s reason=%s", step.Index, decision.Action, decision.Reason)

	if len(state.StepHistory) >= state.StepBudget {
		log.Printf("[Decide] step budget (%d) reached, forcing answer", state.StepBudget)
		state.Status = StatusBudgetExhausted
		state.StepHistory = append(state.StepHistory, StepRecord{
			Index:       len(state.StepHistory),
			Type:        "tool",
			Observation: "budget reached",
		})
		return core.ActionAnswer
	}

	if state.CostGuard != nil && state.CostGuard.IsExceeded() {
		log.Printf("[Decide] cost guard exceeded, forcing answer")
		return core.ActionAnswer
	}

	switch decision.Action {
	case "tool":
		if len(prep) > 0 && prep[0].LoopDetected.Detected {
			log.Printf("[LoopDetector] hard override tool->answer (%s)", prep[0].LoopDetected.Rule)
			return core.ActionAnswer
		}
		return core.ActionTool
	case "answer":
		return core.ActionAnswer
	default:
		log.Printf("[Decide] unknown action %q, defaulting to answer", decision.Action)
		return core.ActionAnswer
	}
}

// ExecFallback returns a safe decision when Exec fails after all retries.
func (n *DecideNode) ExecFallback(err error) Decision {
	log.Printf("[Decide] ExecFallback: %v", err)
	return Decision{Action: "answer", Reason: fmt.Sprintf("decision failed: %v", err), Answer: "I ran into a problem processing that request. Please try again."}
}

func buildSystemPrompt() string {
	return "You are a SaaS pricing assistant. Decide the next step toward answering the user's question: " +
		"either call one or more pricing tools (iPricing, summary, subscriptions, optimal, filter, validate) " +
		"or give a final answer directly. Ground every filter argument against the pricing document's own " +
		"feature, usage-limit, and plan names; if a tool reports an unknown name or a unit mismatch, adjust " +
		"the call or explain the mismatch instead of retrying blindly."
}

func buildDecidePrompt(prep DecidePrep) string {
	var sb strings.Builder

	if prep.ConversationHistory != "" {
		sb.WriteString(prep.ConversationHistory)
		sb.WriteString("\n[current question]\n")
	}
	sb.WriteString(fmt.Sprintf("Question: %s\n\n", prep.Problem))

	if prep.PricingSummary != "" {
		sb.WriteString("Pricing context in scope:\n")
		sb.WriteString(prep.PricingSummary)
		sb.WriteString("\n\n")
	}

	if prep.StepSummary != "" {
		sb.WriteString("Steps so far:\n")
		sb.WriteString(prep.StepSummary)
		sb.WriteString("\n")
	}

	remaining := prep.StepBudget - prep.StepCount
	if remaining <= 2 && prep.StepCount > 0 {
		sb.WriteString(fmt.Sprintf("Remaining step budget: %d. Answer now with what you have.\n\n", remaining))
	}

	if prep.LoopDetected.Detected {
		sb.WriteString(fmt.Sprintf("Repetitive pattern detected (%s). Answer now instead of calling a tool.\n\n", prep.LoopDetected.Description))
	}

	sb.WriteString("Respond via a tool call, or with a direct text answer.")
	return sb.String()
}

// recentToolWindow is the number of most-recent tool steps kept with full
// observation text in the step summary; older ones are compressed.
const recentToolWindow = 3

// stepOutputBudget caps the characters kept per recent tool observation.
const stepOutputBudget = 4000

func buildStepSummary(steps []StepRecord) string {
	if len(steps) == 0 {
		return ""
	}

	toolCount := 0
	for _, s := range steps {
		if s.Type == "tool" {
			toolCount++
		}
	}
	fullOutputThreshold := toolCount - recentToolWindow

	var sb strings.Builder
	toolIdx := 0
	for _, s := range steps {
		switch s.Type {
		case "decide":
			if s.Thought != "" {
				sb.WriteString(fmt.Sprintf("  step %d [decide]: %s\n", s.Index, s.Thought))
			}
		case "tool":
			if toolIdx >= fullOutputThreshold {
				sb.WriteString(fmt.Sprintf("  step %d [tool %s]: %s\n", s.Index, s.ToolName, truncate(s.Observation, stepOutputBudget)))
			} else {
				sb.WriteString(fmt.Sprintf("  step %d [tool %s]: ran, %d bytes output\n", s.Index, s.ToolName, len(s.Observation)))
			}
			toolIdx++
		case "answer":
			sb.WriteString(fmt.Sprintf("  step %d [answer]: %s\n", s.Index, truncate(s.Observation, 200)))
		}
	}
	return sb.String()
}

func summarizePricingContext(items []*pricing.Item) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, it := range items {
		label := it.Label
		if label == "" {
			label = it.ID
		}
		sb.WriteString(fmt.Sprintf("  - %s (%s, %s, transform=%s)\n", label, it.Kind, it.Origin, it.Transform))
	}
	return sb.String()
}
