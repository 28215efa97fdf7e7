package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
)

func TestValidateTool_Interface(t *testing.T) {
	tool := NewValidateTool(analysis.New(analysis.Config{BaseURL: "http://unused"}))
	if tool.Name() != "validate" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "validate")
	}
}

func TestValidateTool_Valid(t *testing.T) {
	srv := newSolverJobServer(`{"valid":true}`)
	defer srv.Close()

	tool := NewValidateTool(analysis.New(analysis.Config{BaseURL: srv.URL}))
	args, _ := json.Marshal(map[string]string{"yaml": solverTestYAML})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}

	var out struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal([]byte(result.Output), &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if !out.Valid {
		t.Error("expected valid=true")
	}
}

func TestValidateTool_Invalid(t *testing.T) {
	srv := newSolverJobServer(`{"valid":false,"errors":["missing plans"]}`)
	defer srv.Close()

	tool := NewValidateTool(analysis.New(analysis.Config{BaseURL: srv.URL}))
	args, _ := json.Marshal(map[string]string{"yaml": "saasName: Empty\n"})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}
}
