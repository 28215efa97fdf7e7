package agentcore

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
)

const (
	loopWindowSize       = 8   // recent tool steps examined
	loopSameToolLimit    = 3   // Rule 1: identical-call repetition limit
	loopConsecErrorLimit = 3   // Rule 3: consecutive-failure limit
)

// paramDedupTools maps a tool name to the JSON argument key used as its
// Rule-1 dedup key, for tools where two calls with different values of that
// key are legitimately distinct (not a loop) even though every other
// argument repeats.
var paramDedupTools = map[string]string{
	"iPricing": "url",
}

// DetectionResult describes a detected repetitive-call pattern.
type DetectionResult struct {
	Detected    bool
	Rule        string // "same_tool_freq" | "consecutive_errors"
	Description string // injected into the next decide prompt
	ToolName    string
}

// LoopDetector analyzes StepHistory for repetitive tool-call behavior.
// Stateless: every call is a pure function of the steps passed in.
type LoopDetector struct{}

// Check evaluates detection rules in order; the first match wins.
func (d *LoopDetector) Check(steps []StepRecord) DetectionResult {
	toolSteps := toolStepsOf(steps)
	if len(toolSteps) < 2 {
		return DetectionResult{}
	}
	if r := d.checkSameToolFrequency(toolSteps); r.Detected {
		return r
	}
	if r := d.checkConsecutiveErrors(toolSteps); r.Detected {
		return r
	}
	return DetectionResult{}
}

func (d *LoopDetector) checkSameToolFrequency(toolSteps []StepRecord) DetectionResult {
	window := recentWindow(toolSteps, loopWindowSize)

	freq := make(map[dedupKey]int)
	for _, s := range window {
		freq[toolCallKey(s)]++
	}

	for k, count := range freq {
		if count >= loopSameToolLimit {
			desc := fmt.Sprintf("%s called %d times", k.name, count)
			if k.key != "" && len(k.key) <= 60 {
				desc += fmt.Sprintf(" (args %s)", k.key)
			}
			return DetectionResult{Detected: true, Rule: "same_tool_freq", Description: desc, ToolName: k.name}
		}
	}
	return DetectionResult{}
}

func (d *LoopDetector) checkConsecutiveErrors(toolSteps []StepRecord) DetectionResult {
	if len(toolSteps) < loopConsecErrorLimit {
		return DetectionResult{}
	}
	tail := toolSteps[len(toolSteps)-loopConsecErrorLimit:]
	for _, s := range tail {
		if !s.IsError {
			return DetectionResult{}
		}
	}
	return DetectionResult{
		Detected:    true,
		Rule:        "consecutive_errors",
		Description: fmt.Sprintf("last %d tool calls all failed", loopConsecErrorLimit),
	}
}

type dedupKey struct{ name, key string }

func toolCallKey(s StepRecord) dedupKey {
	if paramKey, ok := paramDedupTools[s.ToolName]; ok {
		return dedupKey{s.ToolName, extractParam(s.Input, paramKey)}
	}
	// #nosec G401 -- used only for loop-dedup, not security
	h := md5.Sum([]byte(s.Input))
	return dedupKey{s.ToolName, fmt.Sprintf("%x", h)}
}

func toolStepsOf(steps []StepRecord) []StepRecord {
	out := make([]StepRecord, 0, len(steps))
	for _, s := range steps {
		if s.Type == "tool" {
			out = append(out, s)
		}
	}
	return out
}

func recentWindow(steps []StepRecord, n int) []StepRecord {
	if len(steps) <= n {
		return steps
	}
	return steps[len(steps)-n:]
}

func extractParam(jsonInput, key string) string {
	var params map[string]any
	if err := json.Unmarshal([]byte(jsonInput), &params); err != nil {
		return ""
	}
	v, ok := params[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
