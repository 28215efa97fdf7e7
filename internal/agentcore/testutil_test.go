package agentcore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/llm"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// stubTool is a minimal tool.Tool for exercising ToolNode and DecideNode
// without a real adapter.
type stubTool struct {
	name   string
	output string
	err    string
	calls  int
}

func (s *stubTool) Name() string                 { return s.name }
func (s *stubTool) Description() string          { return "stub tool for tests" }
func (s *stubTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (s *stubTool) Init(_ context.Context) error  { return nil }
func (s *stubTool) Close() error                  { return nil }

func (s *stubTool) Execute(_ context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	s.calls++
	return tool.ToolResult{Output: s.output, Error: s.err}, nil
}

// slowTool blocks for delay or until ctx is cancelled, whichever comes
// first, returning a transport-style error on cancellation.
type slowTool struct {
	name  string
	delay time.Duration
}

func (s *slowTool) Name() string                 { return s.name }
func (s *slowTool) Description() string          { return "slow stub tool for tests" }
func (s *slowTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (s *slowTool) Init(_ context.Context) error  { return nil }
func (s *slowTool) Close() error                  { return nil }

func (s *slowTool) Execute(ctx context.Context, _ json.RawMessage) (tool.ToolResult, error) {
	select {
	case <-time.After(s.delay):
		return tool.ToolResult{Output: "done"}, nil
	case <-ctx.Done():
		return tool.ToolResult{}, ctx.Err()
	}
}

// mockLLMProvider implements llm.LLMProvider with canned responses.
type mockLLMProvider struct {
	withToolsResp []llm.Message // consumed in order; last one repeats
	withToolsErr  []error
	callIdx       int

	callLLMResp llm.Message
	callLLMErr  error
}

func (m *mockLLMProvider) CallLLM(_ context.Context, _ []llm.Message) (llm.Message, error) {
	return m.callLLMResp, m.callLLMErr
}

func (m *mockLLMProvider) CallLLMStream(_ context.Context, _ []llm.Message, onChunk llm.StreamCallback) (llm.Message, error) {
	if onChunk != nil && m.callLLMResp.Content != "" {
		onChunk(m.callLLMResp.Content)
	}
	return m.callLLMResp, m.callLLMErr
}

func (m *mockLLMProvider) CallLLMWithTools(_ context.Context, _ []llm.Message, _ []llm.ToolDefinition) (llm.Message, error) {
	idx := m.callIdx
	m.callIdx++

	var err error
	if idx < len(m.withToolsErr) {
		err = m.withToolsErr[idx]
	}
	if err != nil {
		return llm.Message{}, err
	}

	if idx < len(m.withToolsResp) {
		return m.withToolsResp[idx], nil
	}
	if len(m.withToolsResp) > 0 {
		return m.withToolsResp[len(m.withToolsResp)-1], nil
	}
	return llm.Message{}, nil
}

func (m *mockLLMProvider) IsToolCallingEnabled() bool { return true }
func (m *mockLLMProvider) GetName() string            { return "mock" }

func newRegistryWith(tools ...tool.Tool) *tool.Registry {
	r := tool.NewRegistry()
	for _, t := range tools {
		r.Register(t)
	}
	return r
}
