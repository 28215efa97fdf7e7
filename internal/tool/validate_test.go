package tool

import (
	"context"
	"encoding/json"
	"testing"
)

type fakeTool struct {
	name   string
	schema json.RawMessage
}

func (f *fakeTool) Name() string                  { return f.name }
func (f *fakeTool) Description() string           { return "fake" }
func (f *fakeTool) InputSchema() json.RawMessage  { return f.schema }
func (f *fakeTool) Init(ctx context.Context) error { return nil }
func (f *fakeTool) Close() error                  { return nil }
func (f *fakeTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	return ToolResult{}, nil
}

func TestValidateArgumentsAccepts(t *testing.T) {
	tool := &fakeTool{name: "t1", schema: BuildSchema(SchemaParam{Name: "url", Type: "string", Required: true})}
	if err := ValidateArguments(tool, json.RawMessage(`{"url":"https://example.com"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateArgumentsRejectsMissingRequired(t *testing.T) {
	tool := &fakeTool{name: "t1", schema: BuildSchema(SchemaParam{Name: "url", Type: "string", Required: true})}
	if err := ValidateArguments(tool, json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected validation error for missing required field")
	}
}

func TestValidateArgumentsRejectsMalformedJSON(t *testing.T) {
	tool := &fakeTool{name: "t1", schema: BuildSchema(SchemaParam{Name: "url", Type: "string", Required: true})}
	err := ValidateArguments(tool, json.RawMessage(`not json`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestValidateArgumentsNoSchemaAcceptsAnything(t *testing.T) {
	tool := &fakeTool{name: "t1"}
	if err := ValidateArguments(tool, json.RawMessage(`{"anything":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
