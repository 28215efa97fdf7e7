package agentcore

import (
	"time"

	"github.com/isa-group/harvey-agent-core/internal/core"
	"github.com/isa-group/harvey-agent-core/internal/llm"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// BuildAgentFlow assembles the ReAct decision loop:
//
//	DecideNode ──┬── ActionTool   → ToolNode   ──→ DecideNode
//	             └── ActionAnswer → AnswerNode ──→ End
//
// perToolTimeout bounds each individual fanned-out tool call
// independently (0 disables it).
func BuildAgentFlow(provider llm.LLMProvider, registry *tool.Registry, perToolTimeout time.Duration) core.Workflow[AgentState] {
	decideNode := core.NewNode[AgentState, DecidePrep, Decision](
		NewDecideNode(provider), 0,
	)
	toolNode := core.NewNode[AgentState, ToolPrep, ToolExecResult](
		NewToolNode(registry, perToolTimeout), 0,
	)
	answerNode := core.NewNode[AgentState, AnswerPrep, AnswerResult](
		NewAnswerNode(provider), 1,
	)

	decideNode.AddSuccessor(toolNode, core.ActionTool)
	decideNode.AddSuccessor(answerNode, core.ActionAnswer)
	toolNode.AddSuccessor(decideNode) // ActionDefault → DecideNode

	return core.NewFlow[AgentState](decideNode)
}
