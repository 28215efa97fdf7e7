package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/isa-group/harvey-agent-core/internal/cache"
	"github.com/isa-group/harvey-agent-core/internal/pricing"
	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// IPricingTool resolves a SaaS pricing page URL to its iPricing YAML via the
// Pricing-Context Cache (C4), fronting the Extractor adapter (C3).
type IPricingTool struct {
	cache *cache.Cache
}

// NewIPricingTool builds the tool against c.
func NewIPricingTool(c *cache.Cache) *IPricingTool {
	return &IPricingTool{cache: c}
}

func (t *IPricingTool) Name() string { return "iPricing" }
func (t *IPricingTool) Description() string {
	return "Resolves a pricing page URL to its iPricing YAML document and canonical URL. Results are cached; repeated calls for the same URL are cheap."
}

func (t *IPricingTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "url", Type: "string", Description: "the pricing page URL to extract", Required: true},
	)
}

func (t *IPricingTool) Init(_ context.Context) error { return nil }
func (t *IPricingTool) Close() error                 { return nil }

type iPricingArgs struct {
	URL string `json:"url"`
}

type iPricingOutput struct {
	CanonicalURL string `json:"canonical_url"`
	YAML         string `json:"yaml"`
}

func (t *IPricingTool) Execute(ctx context.Context, args json.RawMessage) (tool.ToolResult, error) {
	var a iPricingArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("argument parse error: %v", err)}, nil
	}

	canonical, err := pricing.Canonicalize(a.URL)
	if err != nil {
		return tool.ToolResult{Error: err.Error()}, nil
	}

	yaml, err := t.cache.Resolve(ctx, canonical)
	if err != nil {
		return tool.ToolResult{Error: fmt.Sprintf("failed to resolve pricing context: %v", err)}, nil
	}

	out, _ := json.Marshal(iPricingOutput{CanonicalURL: canonical, YAML: yaml})
	return tool.ToolResult{Output: string(out)}, nil
}
