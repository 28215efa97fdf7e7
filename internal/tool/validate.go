package tool

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ArgumentError is returned when a tool call's arguments fail schema
// validation, before Execute is ever invoked.
type ArgumentError struct {
	Tool   string
	Path   string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tool %s: invalid argument at %s: %s", e.Tool, e.Path, e.Reason)
}

var schemaCache sync.Map // InputSchema() bytes -> *jsonschema.Schema

// compileSchema compiles and caches raw, reused across every call to the
// same tool. Grounded on haasonsaas-nexus's pkg/pluginsdk/validation.go
// compile-and-cache pattern.
func compileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	key := string(raw)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}
	compiled, err := jsonschema.CompileString("tool-args.json", key)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}

// ValidateArguments validates args against t's declared InputSchema. A tool
// with an empty schema accepts any arguments.
func ValidateArguments(t Tool, args json.RawMessage) error {
	schema := t.InputSchema()
	if len(schema) == 0 {
		return nil
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("tool %s: compile schema: %w", t.Name(), err)
	}

	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return &ArgumentError{Tool: t.Name(), Path: "$", Reason: "arguments are not valid JSON: " + err.Error()}
	}

	if err := compiled.Validate(decoded); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok && len(verr.Causes) > 0 {
			first := verr.Causes[0]
			return &ArgumentError{Tool: t.Name(), Path: first.InstanceLocation, Reason: first.Error()}
		}
		return &ArgumentError{Tool: t.Name(), Path: "$", Reason: err.Error()}
	}
	return nil
}
