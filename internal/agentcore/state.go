// Package agentcore implements the bounded ReAct agent loop (C7): a
// Prep/Exec/Post node chain over internal/core.Flow that decides, calls
// tools, and answers, with concurrent tool-call fan-out and a hard step
// budget.
package agentcore

import (
	"time"

	"github.com/isa-group/harvey-agent-core/internal/llm"
	"github.com/isa-group/harvey-agent-core/internal/pricing"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// DefaultStepBudget and MaxStepBudget bound the number of recorded
// transcript steps (decide and tool records alike) in one turn: DecideNode
// forces an answer once StepHistory reaches the budget. A caller-supplied
// budget above MaxStepBudget is clamped.
const (
	DefaultStepBudget = 8
	MaxStepBudget     = 16

	// DefaultStepTimeout bounds a single decide-or-tool-fan-out step.
	DefaultStepTimeout = 90 * time.Second
)

// Status is the terminal/non-terminal state of one agent turn.
type Status string

const (
	StatusRunning         Status = "running"
	StatusAnswered        Status = "answered"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
	StatusBudgetExhausted Status = "budget_exhausted"
)

// AgentState is the shared state threaded through one turn of the ReAct
// loop. Not goroutine-safe across nodes: core.Flow.Run guarantees
// single-goroutine traversal of the Prep/Exec/Post chain; only ToolNode's
// own fan-out spawns goroutines, and it joins them before returning.
type AgentState struct {
	Problem string // user's question for this turn

	// ConversationHistory is a read-only formatted prefix of prior turns,
	// built by the session package. The loop appends to the transcript via
	// StepHistory only; it never mutates session history directly.
	ConversationHistory string

	// PricingContext is the read-only snapshot of the session's pricing
	// working set in scope for this turn (ready YAML items only).
	PricingContext []*pricing.Item

	ToolRegistry *tool.Registry

	StepBudget int // effective budget for this turn, clamped to MaxStepBudget
	StepHistory []StepRecord

	Status   Status
	Solution string

	CostGuard *CostGuard

	// lastCorrelation is the correlation id minted by DecideNode.Post for
	// the current round; ToolNode.Prep reuses it so a decide step and the
	// tool steps it spawned can be joined by C5/C10 consumers.
	lastCorrelation string

	// OnStepComplete, when set, is invoked synchronously after every
	// recorded step (decide/tool/answer) for SSE progress notification.
	OnStepComplete func(StepRecord)
	// OnStreamChunk, when set, is invoked with each streamed answer token.
	OnStreamChunk func(chunk string)

	// LastDecision is a transient handoff: DecideNode writes it, ToolNode
	// reads it.
	LastDecision *Decision `json:"-"`

	loopStreak int // consecutive loop detections without LLM self-correction
}

// NewAgentState builds a fresh turn state. budget<=0 uses DefaultStepBudget;
// budget>MaxStepBudget is clamped.
func NewAgentState(problem string, registry *tool.Registry, budget int) *AgentState {
	if budget <= 0 {
		budget = DefaultStepBudget
	}
	if budget > MaxStepBudget {
		budget = MaxStepBudget
	}
	return &AgentState{
		Problem:      problem,
		ToolRegistry: registry,
		StepBudget:   budget,
		Status:       StatusRunning,
	}
}

// StepRecord is one immutable entry in a turn's transcript (AgentStep from
// spec.md §3), covering decide/tool/answer step types.
type StepRecord struct {
	Index         int    `json:"index"`
	Type          string `json:"type"` // "decide", "tool", "answer"
	CorrelationID string `json:"correlation_id"`

	Thought      string `json:"thought,omitempty"`       // decision reasoning
	ToolName     string `json:"tool_name,omitempty"`      // type=tool
	ToolCallID   string `json:"tool_call_id,omitempty"`    // FC correlation
	Input        string `json:"input,omitempty"`          // canonicalized tool args JSON (type=tool)
	Observation  string `json:"observation,omitempty"`     // tool output or answer text
	IsError      bool   `json:"is_error,omitempty"`
	DurationMs   int64  `json:"duration_ms,omitempty"`
	TokensIn     int    `json:"tokens_in,omitempty"`
	TokensOut    int    `json:"tokens_out,omitempty"`
}

func hasToolSteps(state *AgentState) bool {
	for _, s := range state.StepHistory {
		if s.Type == "tool" {
			return true
		}
	}
	return false
}

// ── DecideNode types ──
// BaseNode[AgentState, DecidePrep, Decision]

// DecidePrep is the prepared input for one LLM decision.
type DecidePrep struct {
	Problem             string
	ConversationHistory string
	PricingSummary      string // compact description of PricingContext for the prompt
	StepSummary         string
	ToolDefinitions     []llm.ToolDefinition
	StepCount           int
	StepBudget          int
	LoopDetected        DetectionResult
	CorrelationID       string
}

// ToolCallRequest is one tool invocation the model asked for in a single
// decision (fan-out: a Decision may carry more than one).
type ToolCallRequest struct {
	Name      string
	Arguments map[string]any
	CallID    string
}

// Decision is the LLM's decision for one step: either a final answer or a
// batch of tool calls to run concurrently.
type Decision struct {
	Action    string // "tool" or "answer"
	Reason    string
	ToolCalls []ToolCallRequest // non-empty when Action == "tool"
	Answer    string            // set when Action == "answer"
}

// ── ToolNode types ──
// BaseNode[AgentState, ToolPrep, ToolExecResult]

// ToolPrep is prepared by reading LastDecision.ToolCalls; Prep returns a
// single ToolPrep holding every requested call, and ToolNode.Exec fans them
// out concurrently itself.
type ToolPrep struct {
	CorrelationID string
	Calls         []ResolvedCall
}

// ResolvedCall is one tool call with its target already resolved from the
// registry (or nil if unknown).
type ResolvedCall struct {
	Name         string
	Args         []byte // json.Marshal(ToolCallRequest.Arguments), key order stable
	CallID       string
	ResolvedTool tool.Tool
}

// ToolExecResult carries the results of executing every call in the
// corresponding ToolPrep, in call-declaration order.
type ToolExecResult struct {
	Results []ToolCallResult
}

// ToolCallResult is the observation produced by one fanned-out tool call.
type ToolCallResult struct {
	Name       string
	CallID     string
	Output     string
	Error      string
	DurationMs int64
}

// ── AnswerNode types ──
// BaseNode[AgentState, AnswerPrep, AnswerResult]

// AnswerPrep aggregates transcript context for final-answer synthesis.
type AnswerPrep struct {
	Problem     string
	FullContext string
	HasToolUse  bool
	StreamChunk func(chunk string) `json:"-"`
}

// AnswerResult holds the synthesized final answer.
type AnswerResult struct {
	Answer string
}
