package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message for LLM communication, extended beyond
// the teacher's plain system/user/assistant shape to carry Function-Calling
// tool results and tool-call requests.
type Message struct {
	Role             string     `json:"role"` // "system", "user", "assistant", "tool"
	Content          string     `json:"content"`
	ReasoningContent string     `json:"reasoning_content,omitempty"` // native thinking output
	Name             string     `json:"name,omitempty"`              // tool result: the tool's name
	ToolCallID       string     `json:"tool_call_id,omitempty"`      // tool result: correlates to a ToolCall.ID
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`        // assistant message requesting tool calls
}

// ToolCall is one Function-Calling invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition is a Function-Calling-compatible tool description, derived
// from tool.Registry.GenerateToolDefinitions.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// StreamCallback is invoked for each chunk of streamed text.
type StreamCallback func(chunk string)

// LLMProvider defines the interface all LLM backends implement: an
// OpenAI-compatible client and an Anthropic client both satisfy this.
type LLMProvider interface {
	// CallLLM sends messages to the LLM and returns the complete response.
	CallLLM(ctx context.Context, messages []Message) (Message, error)

	// CallLLMStream streams the response token-by-token via onChunk and
	// returns the full assembled message once streaming finishes.
	CallLLMStream(ctx context.Context, messages []Message, onChunk StreamCallback) (Message, error)

	// CallLLMWithTools sends messages plus a tool catalogue for Function
	// Calling and returns either a direct answer or requested tool calls.
	CallLLMWithTools(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error)

	// IsToolCallingEnabled reports whether this provider/model combination
	// supports native Function Calling.
	IsToolCallingEnabled() bool

	// GetName returns the provider name/identifier.
	GetName() string
}

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)
