// Package anthropic implements llm.LLMProvider against the Anthropic
// Messages API, as a second LLM backend alongside internal/llm/openai.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/isa-group/harvey-agent-core/internal/llm"
)

// Config holds Anthropic client configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature *float64
	MaxRetries  int
	ToolCalling bool // whether this model/deployment supports tool_use blocks
}

// NewConfigFromEnv builds a Config from ANTHROPIC_API_KEY / ANTHROPIC_* vars,
// following the same getEnvOrDefault idiom as internal/llm/openai.Config.
func NewConfigFromEnv() (*Config, error) {
	cfg := &Config{
		APIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		BaseURL:     os.Getenv("ANTHROPIC_BASE_URL"),
		Model:       getEnvOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		MaxTokens:   int64(getEnvIntOrDefault("ANTHROPIC_MAX_TOKENS", 4096)),
		MaxRetries:  getEnvIntOrDefault("ANTHROPIC_MAX_RETRIES", 2),
		ToolCalling: true,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.Model == "" {
		return fmt.Errorf("ANTHROPIC_MODEL cannot be empty")
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Client implements llm.LLMProvider using the Anthropic Messages API.
type Client struct {
	client anthropic.Client
	config *Config
}

// NewClient builds a Client against cfg.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{client: anthropic.NewClient(opts...), config: cfg}, nil
}

// splitSystem pulls the leading system messages out of messages (Anthropic
// takes the system prompt as a separate top-level field, not a message).
func splitSystem(messages []llm.Message) (string, []llm.Message) {
	var sb strings.Builder
	rest := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return sb.String(), rest
}

func toAnthropicMessages(messages []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			if len(m.ToolCalls) > 0 {
				blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.ToolCalls)+1)
				if m.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(m.Content))
				}
				for _, tc := range m.ToolCalls {
					var input any
					_ = json.Unmarshal(tc.Arguments, &input)
					blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
				}
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			} else {
				out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			}
		case llm.RoleTool:
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false)))
		}
	}
	return out
}

func (c *Client) baseParams(system string, messages []anthropic.MessageParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: c.config.MaxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if c.config.Temperature != nil {
		params.Temperature = anthropic.Float(*c.config.Temperature)
	}
	return params
}

func (c *Client) withRetries(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt < c.config.MaxRetries {
			wait := time.Duration(attempt+1) * time.Second
			log.Printf("[anthropic] %s retry %d/%d after %v: %v", op, attempt+1, c.config.MaxRetries, wait, lastErr)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// CallLLM sends messages and returns the complete response.
func (c *Client) CallLLM(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	system, rest := splitSystem(messages)
	params := c.baseParams(system, toAnthropicMessages(rest))

	var resp *anthropic.Message
	err := c.withRetries(ctx, "CallLLM", func() error {
		r, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return llm.Message{}, fmt.Errorf("anthropic: call failed: %w", err)
	}
	return toLLMMessage(resp), nil
}

// CallLLMStream streams the response token-by-token via onChunk.
func (c *Client) CallLLMStream(ctx context.Context, messages []llm.Message, onChunk llm.StreamCallback) (llm.Message, error) {
	if onChunk == nil {
		return c.CallLLM(ctx, messages)
	}
	system, rest := splitSystem(messages)
	params := c.baseParams(system, toAnthropicMessages(rest))

	stream := c.client.Messages.NewStreaming(ctx, params)
	acc := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return llm.Message{}, fmt.Errorf("anthropic: accumulate stream event: %w", err)
		}
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
				onChunk(text.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		if acc.Content != nil {
			log.Printf("[anthropic] stream interrupted after partial content: %v", err)
			return toLLMMessage(&acc), nil
		}
		return llm.Message{}, fmt.Errorf("anthropic: stream error: %w", err)
	}
	return toLLMMessage(&acc), nil
}

// CallLLMWithTools sends messages with a tool catalogue for Function Calling.
func (c *Client) CallLLMWithTools(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Message, error) {
	system, rest := splitSystem(messages)
	params := c.baseParams(system, toAnthropicMessages(rest))

	toolParams := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema map[string]any
		_ = json.Unmarshal(t.Parameters, &schema)
		toolParams = append(toolParams, anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
			Required:   toStringSlice(schema["required"]),
		}, t.Name))
	}
	params.Tools = toolParams

	var resp *anthropic.Message
	err := c.withRetries(ctx, "CallLLMWithTools", func() error {
		r, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return llm.Message{}, fmt.Errorf("anthropic: FC call failed: %w", err)
	}
	return toLLMMessage(resp), nil
}

// IsToolCallingEnabled reports whether this provider supports Function Calling.
func (c *Client) IsToolCallingEnabled() bool {
	return c.config.ToolCalling
}

// GetName returns the provider name.
func (c *Client) GetName() string {
	return fmt.Sprintf("anthropic (%s)", c.config.Model)
}

func toLLMMessage(msg *anthropic.Message) llm.Message {
	out := llm.Message{Role: llm.RoleAssistant}
	var sb strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args, _ := json.Marshal(b.Input)
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	out.Content = sb.String()
	return out
}

func toStringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
