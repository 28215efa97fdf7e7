package agentcore

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/isa-group/harvey-agent-core/internal/core"
	"github.com/isa-group/harvey-agent-core/internal/llm"
)

// directAnswerMaxRunes bounds answers that pass through without an extra
// synthesis call.
const directAnswerMaxRunes = 500

// AnswerNodeImpl implements BaseNode[AgentState, AnswerPrep, AnswerResult].
// It synthesizes the final answer from the accumulated transcript.
type AnswerNodeImpl struct {
	llmProvider llm.LLMProvider
}

func NewAnswerNode(provider llm.LLMProvider) *AnswerNodeImpl {
	return &AnswerNodeImpl{llmProvider: provider}
}

// Prep aggregates the transcript into a single synthesis context.
func (n *AnswerNodeImpl) Prep(state *AgentState) []AnswerPrep {
	fullContext := buildFullContext(state)
	hasTools := hasToolSteps(state)

	if state.LastDecision != nil && state.LastDecision.Answer != "" && !hasTools {
		return []AnswerPrep{{
			Problem:     state.Problem,
			FullContext: state.LastDecision.Answer,
			HasToolUse:  false,
			StreamChunk: state.OnStreamChunk,
		}}
	}

	if state.LastDecision != nil && state.LastDecision.Answer != "" {
		fullContext = fmt.Sprintf("[draft]:\n%s\n\n%s", state.LastDecision.Answer, fullContext)
	}

	return []AnswerPrep{{
		Problem:     state.Problem,
		FullContext: fullContext,
		HasToolUse:  hasTools,
		StreamChunk: state.OnStreamChunk,
	}}
}

// Exec calls the LLM to synthesize the final answer, skipping the call
// entirely for short direct answers that never touched a tool.
func (n *AnswerNodeImpl) Exec(ctx context.Context, prep AnswerPrep) (AnswerResult, error) {
	if utf8.RuneCountInString(prep.FullContext) < directAnswerMaxRunes && !prep.HasToolUse {
		return AnswerResult{Answer: prep.FullContext}, nil
	}

	userPrompt := fmt.Sprintf(
		"Question: %s\n\nGathered information:\n%s\n\nSynthesize a concise final answer:",
		prep.Problem, prep.FullContext,
	)
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a SaaS pricing assistant. Answer directly from the gathered information; do not add a preamble like \"here is the answer\"."},
		{Role: llm.RoleUser, Content: userPrompt},
	}

	if prep.StreamChunk != nil {
		resp, err := n.llmProvider.CallLLMStream(ctx, msgs, llm.StreamCallback(prep.StreamChunk))
		if err != nil {
			return AnswerResult{}, fmt.Errorf("answer synthesis stream failed: %w", err)
		}
		return AnswerResult{Answer: resp.Content}, nil
	}

	resp, err := n.llmProvider.CallLLM(ctx, msgs)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("answer synthesis failed: %w", err)
	}
	return AnswerResult{Answer: resp.Content}, nil
}

// ExecFallback returns a user-facing error message as the answer.
func (n *AnswerNodeImpl) ExecFallback(err error) AnswerResult {
	return AnswerResult{Answer: fmt.Sprintf("I couldn't produce an answer: %v", err)}
}

// Post writes the final answer to state and ends the flow.
func (n *AnswerNodeImpl) Post(state *AgentState, prep []AnswerPrep, results ...AnswerResult) core.Action {
	if len(results) > 0 {
		state.Solution = results[0].Answer
	}
	if state.Status == StatusRunning {
		state.Status = StatusAnswered
	}

	step := StepRecord{
		Index:       len(state.StepHistory),
		Type:        "answer",
		Observation: state.Solution,
	}
	state.StepHistory = append(state.StepHistory, step)
	if state.OnStepComplete != nil {
		state.OnStepComplete(step)
	}
	log.Printf("[AnswerNode] final answer: %s", truncate(state.Solution, 120))

	return core.ActionEnd
}

// buildFullContext assembles the transcript into synthesis context, in
// step order, dropping internal decide-routing noise.
func buildFullContext(state *AgentState) string {
	var sb strings.Builder
	for _, s := range state.StepHistory {
		switch s.Type {
		case "tool":
			sb.WriteString(fmt.Sprintf("[tool %s result]:\n%s\n\n", s.ToolName, s.Observation))
		case "decide":
			if s.Thought != "" {
				sb.WriteString(fmt.Sprintf("[routed to tool]: %s\n", s.Thought))
			}
		}
	}
	return sb.String()
}
