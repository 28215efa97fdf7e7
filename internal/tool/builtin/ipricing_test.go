package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/cache"
)

var errTransformFailed = errors.New("transform failed")

func TestIPricingTool_Interface(t *testing.T) {
	c := cache.New(cache.Config{}, func(ctx context.Context, url string) (string, error) {
		return "saasName: Test\n", nil
	}, nil)
	tool := NewIPricingTool(c)
	if tool.Name() != "iPricing" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "iPricing")
	}
	if tool.Description() == "" {
		t.Error("Description() should not be empty")
	}
	if len(tool.InputSchema()) == 0 {
		t.Error("InputSchema() should not be empty")
	}
}

func TestIPricingTool_ResolvesAndCaches(t *testing.T) {
	calls := 0
	c := cache.New(cache.Config{}, func(ctx context.Context, url string) (string, error) {
		calls++
		return "saasName: Test\n", nil
	}, nil)
	tool := NewIPricingTool(c)

	args, _ := json.Marshal(map[string]string{"url": "https://example.com/pricing"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected tool error: %s", result.Error)
	}

	var out iPricingOutput
	if err := json.Unmarshal([]byte(result.Output), &out); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if out.YAML == "" {
		t.Error("expected non-empty yaml")
	}
	if out.CanonicalURL == "" {
		t.Error("expected non-empty canonical_url")
	}

	if _, err := tool.Execute(context.Background(), args); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if calls != 1 {
		t.Errorf("transform called %d times, want 1 (cached)", calls)
	}
}

func TestIPricingTool_InvalidURL(t *testing.T) {
	c := cache.New(cache.Config{}, func(ctx context.Context, url string) (string, error) {
		return "", nil
	}, nil)
	tool := NewIPricingTool(c)

	args, _ := json.Marshal(map[string]string{"url": "://not-a-url"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected tool error for invalid url")
	}
}

func TestIPricingTool_TransformFailure(t *testing.T) {
	c := cache.New(cache.Config{CooldownAfterError: time.Minute}, func(ctx context.Context, url string) (string, error) {
		return "", errTransformFailed
	}, nil)
	tool := NewIPricingTool(c)

	args, _ := json.Marshal(map[string]string{"url": "https://example.com/pricing"})
	result, err := tool.Execute(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error == "" {
		t.Error("expected tool error when transform fails")
	}
}
