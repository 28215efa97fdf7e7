package agentcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isa-group/harvey-agent-core/internal/core"
	"github.com/isa-group/harvey-agent-core/internal/llm"
)

func TestBuildAgentFlow_ToolThenAnswer(t *testing.T) {
	reg := newRegistryWith(&stubTool{name: "iPricing", output: `{"plans":["basic","pro"]}`})
	mock := &mockLLMProvider{
		withToolsResp: []llm.Message{
			{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{
					{ID: "1", Name: "iPricing", Arguments: []byte(`{"url":"https://x.example.com"}`)},
				},
			},
			{Role: llm.RoleAssistant, Content: "there are two plans: basic and pro"},
		},
		callLLMResp: llm.Message{Content: "there are two plans: basic and pro"},
	}

	flow := BuildAgentFlow(mock, reg, 0)
	state := NewAgentState("what plans are available?", reg, 0)

	action := flow.Run(context.Background(), state)
	assert.Equal(t, core.ActionEnd, action)

	assert.Equal(t, StatusAnswered, state.Status)
	assert.NotEmpty(t, state.Solution)

	var sawTool, sawAnswer bool
	for _, s := range state.StepHistory {
		if s.Type == "tool" {
			sawTool = true
			assert.Equal(t, "iPricing", s.ToolName)
		}
		if s.Type == "answer" {
			sawAnswer = true
		}
	}
	assert.True(t, sawTool, "expected a tool step in the transcript")
	assert.True(t, sawAnswer, "expected an answer step in the transcript")
}

func TestBuildAgentFlow_DirectAnswerSkipsToolNode(t *testing.T) {
	reg := newRegistryWith(&stubTool{name: "iPricing"})
	mock := &mockLLMProvider{
		withToolsResp: []llm.Message{{Role: llm.RoleAssistant, Content: "the basic plan is free"}},
	}

	flow := BuildAgentFlow(mock, reg, 0)
	state := NewAgentState("is basic free?", reg, 0)

	flow.Run(context.Background(), state)

	assert.Equal(t, StatusAnswered, state.Status)
	for _, s := range state.StepHistory {
		assert.NotEqual(t, "tool", s.Type)
	}
}

func TestBuildAgentFlow_BudgetExhaustionForcesAnswer(t *testing.T) {
	reg := newRegistryWith(&stubTool{name: "iPricing", output: "data"})
	// Always asks for another tool call; the budget should cut it short.
	mock := &mockLLMProvider{
		withToolsResp: []llm.Message{{
			Role: llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{
				{ID: "1", Name: "iPricing", Arguments: []byte(`{"url":"https://x.example.com"}`)},
			},
		}},
		callLLMResp: llm.Message{Content: "partial answer from budget exhaustion"},
	}

	flow := BuildAgentFlow(mock, reg, 0)
	state := NewAgentState("loop forever", reg, 2)

	flow.Run(context.Background(), state)

	assert.Equal(t, StatusBudgetExhausted, state.Status)
	assert.NotEmpty(t, state.Solution)
}

func TestBuildAgentFlow_RoutesThroughCoreActions(t *testing.T) {
	// Sanity check that the wiring uses the expected action labels.
	assert.Equal(t, core.Action("tool"), core.ActionTool)
	assert.Equal(t, core.Action("answer"), core.ActionAnswer)
}
