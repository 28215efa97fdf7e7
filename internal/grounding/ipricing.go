package grounding

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// document is the minimal subset of the iPricing schema the grounding layer
// needs: enough of features/usageLimits/plans/add-ons to build an Index.
// Tools needing the full pricing document keep the raw YAML text around
// separately (internal/tool/builtin passes it straight through to C3).
type document struct {
	SaasName    string                  `yaml:"saasName"`
	Features    map[string]featureYAML  `yaml:"features"`
	UsageLimits map[string]limitYAML    `yaml:"usageLimits"`
	Plans       map[string]any          `yaml:"plans"`
	AddOns      map[string]any          `yaml:"addOns"`
}

type featureYAML struct {
	ValueType string `yaml:"valueType"`
}

type limitYAML struct {
	ValueType string `yaml:"valueType"`
	Unit      string `yaml:"unit"`
}

// BuildIndex parses an iPricing YAML document into a canonical Index.
func BuildIndex(yamlText string) (*Index, error) {
	var doc document
	if err := yaml.Unmarshal([]byte(yamlText), &doc); err != nil {
		return nil, fmt.Errorf("grounding: parse iPricing yaml: %w", err)
	}

	idx := &Index{
		Features: make(map[string]FeatureDef, len(doc.Features)),
		Limits:   make(map[string]LimitDef, len(doc.UsageLimits)),
	}

	for name, f := range doc.Features {
		idx.Features[name] = FeatureDef{Name: name, ValueType: normalizeValueType(f.ValueType)}
	}
	for name, l := range doc.UsageLimits {
		idx.Limits[name] = LimitDef{Name: name, Unit: l.Unit}
	}
	for name := range doc.Plans {
		idx.Plans = append(idx.Plans, name)
	}
	for name := range doc.AddOns {
		idx.AddOns = append(idx.AddOns, name)
	}
	return idx, nil
}

func normalizeValueType(raw string) ValueType {
	switch raw {
	case "BOOLEAN", "boolean", "Boolean":
		return ValueBoolean
	case "NUMERIC", "numeric", "Numeric":
		return ValueNumeric
	default:
		return ValueText
	}
}
