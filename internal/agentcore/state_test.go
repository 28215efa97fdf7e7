package agentcore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/isa-group/harvey-agent-core/internal/tool"
)

func TestNewAgentState_DefaultsAndClampsBudget(t *testing.T) {
	reg := tool.NewRegistry()

	s := NewAgentState("q", reg, 0)
	assert.Equal(t, DefaultStepBudget, s.StepBudget)

	s = NewAgentState("q", reg, -5)
	assert.Equal(t, DefaultStepBudget, s.StepBudget)

	s = NewAgentState("q", reg, MaxStepBudget+10)
	assert.Equal(t, MaxStepBudget, s.StepBudget)

	s = NewAgentState("q", reg, 4)
	assert.Equal(t, 4, s.StepBudget)
	assert.Equal(t, StatusRunning, s.Status)
}

func TestHasToolSteps(t *testing.T) {
	s := &AgentState{}
	assert.False(t, hasToolSteps(s))

	s.StepHistory = append(s.StepHistory, StepRecord{Type: "decide"})
	assert.False(t, hasToolSteps(s))

	s.StepHistory = append(s.StepHistory, StepRecord{Type: "tool"})
	assert.True(t, hasToolSteps(s))
}
