package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
)

func TestSummaryTool_Interface(t *testing.T) {
	tool := NewSummaryTool(analysis.New(analysis.Config{BaseURL: "http://unused"}))
	if tool.Name() != "summary" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "summary")
	}
	if tool.Description() == "" {
		t.Error("Description() should not be empty")
	}
	if len(tool.InputSchema()) == 0 {
		t.Error("InputSchema() should not be empty")
	}
}

func TestSummaryTool_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(analysis.SummaryResult{PlanCount: 3, AddOnCount: 1, FeatureCount: 10, UsageLimitCount: 2})
	}))
	defer srv.Close()

	tool := NewSummaryTool(analysis.New(analysis.Config{BaseURL: srv.URL}))
	args, _ := json.Marshal(map[string]string{"yaml": "saasName: Test\n"})

	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}

	var out analysis.SummaryResult
	if err := json.Unmarshal([]byte(result.Output), &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if out.PlanCount != 3 {
		t.Errorf("PlanCount = %d, want 3", out.PlanCount)
	}
}
