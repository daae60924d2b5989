// Package tools implements the tool dispatcher for the triage agent: a fixed
// catalog of named capabilities the model may invoke, with argument decoding
// and fault containment at the dispatch boundary. No failure inside a tool
// ever propagates to the orchestration loop; every failure mode degrades to a
// JSON-serializable error result so the conversation can continue.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ExecuteFunc is the signature for tool execution. The result must be
// JSON-serializable; it is fed back to the model verbatim.
type ExecuteFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool defines one catalog entry.
type Tool struct {
	// Name is the unique identifier exposed to the model.
	Name string

	// Description explains what the tool does; used for model tool calling.
	Description string

	// Parameters is the JSON Schema for the tool's arguments.
	Parameters map[string]any

	// Required lists argument keys that must be present before dispatch.
	Required []string

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// ErrorResult is the error result object produced when dispatch fails for
// any reason: unknown tool, missing argument, or a fault inside the callable.
type ErrorResult struct {
	Error string `json:"error"`
}

// decodeArg round-trips one argument through JSON into a typed value. Model
// arguments arrive as generic maps; this is the boundary where they become
// domain structs.
func decodeArg[T any](args map[string]any, key string) (*T, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequiredArg, key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("argument %s is not serializable: %w", key, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("argument %s has unexpected shape: %w", key, err)
	}
	return &out, nil
}

// stringArg extracts a string argument, with a fallback when absent.
func stringArg(args map[string]any, key, fallback string) string {
	if raw, ok := args[key]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return fallback
}
