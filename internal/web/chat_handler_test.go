package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isa-group/harvey-agent-core/internal/agentcore"
)

func TestChatRequest_ValidateExclusion(t *testing.T) {
	cases := []struct {
		name    string
		req     chatRequest
		wantErr bool
	}{
		{"valid single url", chatRequest{Question: "q", PricingURL: "https://x.example.com"}, false},
		{"valid multi url", chatRequest{Question: "q", PricingURLs: []string{"https://a", "https://b"}}, false},
		{"conflicting url fields", chatRequest{Question: "q", PricingURL: "https://a", PricingURLs: []string{"https://b"}}, true},
		{"conflicting yaml fields", chatRequest{Question: "q", PricingYAML: "a: 1", PricingYAMLs: []string{"b: 2"}}, true},
		{"missing question", chatRequest{}, true},
		{"question only", chatRequest{Question: "q"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.validateExclusion()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChatRequest_UrlsAndYamls(t *testing.T) {
	req := chatRequest{PricingURL: "https://solo.example.com"}
	assert.Equal(t, []string{"https://solo.example.com"}, req.urls())

	req = chatRequest{PricingURLs: []string{"https://a", "https://b"}}
	assert.Equal(t, []string{"https://a", "https://b"}, req.urls())

	req = chatRequest{}
	assert.Nil(t, req.urls())
}

func TestExtractPlanAndResult_SolverEnvelope(t *testing.T) {
	state := &agentcore.AgentState{
		StepHistory: []agentcore.StepRecord{
			{Type: "decide"},
			{Type: "tool", ToolName: "optimal", Observation: `{"result":{"plan":"pro","cost":29.99},"grounded_filter":{"features":["sso"]}}`},
			{Type: "answer"},
		},
	}

	plan, result := extractPlanAndResult(state)
	require.NotNil(t, plan)
	require.NotNil(t, result)
	assert.JSONEq(t, `{"features":["sso"]}`, string(plan))
	assert.JSONEq(t, `{"plan":"pro","cost":29.99}`, string(result))
}

func TestExtractPlanAndResult_SkipsErroredSteps(t *testing.T) {
	state := &agentcore.AgentState{
		StepHistory: []agentcore.StepRecord{
			{Type: "tool", ToolName: "optimal", IsError: true, Observation: "boom"},
			{Type: "tool", ToolName: "optimal", Observation: `{"result":{"ok":true}}`},
		},
	}

	plan, result := extractPlanAndResult(state)
	assert.Nil(t, plan)
	assert.JSONEq(t, `{"ok":true}`, string(result))
}

func TestExtractPlanAndResult_NoSolverStep(t *testing.T) {
	state := &agentcore.AgentState{
		StepHistory: []agentcore.StepRecord{
			{Type: "tool", ToolName: "iPricing", Observation: "plans: []"},
		},
	}

	plan, result := extractPlanAndResult(state)
	assert.Nil(t, plan)
	assert.Nil(t, result)
}
