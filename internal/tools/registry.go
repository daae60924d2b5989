package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"claimtriage/internal/logging"
	"claimtriage/internal/types"
)

// Registry holds all available tools and dispatches invocations by name.
// It is thread-safe, though the triage loop itself is strictly sequential.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the registry.
// Returns an error if a tool with the same name already exists.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}

	r.tools[tool.Name] = tool
	logging.ToolsDebug("registered tool: %s", tool.Name)
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static catalog construction at startup.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Definitions returns the catalog surface exposed to the gateway, in a
// stable name order.
func (r *Registry) Definitions() []types.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]types.ToolDefinition, 0, len(names))
	for _, name := range names {
		tool := r.tools[name]
		defs = append(defs, types.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return defs
}

// Dispatch runs a tool by name with the given arguments. It never fails:
// unknown names, missing arguments, callable errors, and panics all come
// back as an ErrorResult so the loop can return them to the model.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (result any) {
	tool := r.Get(name)
	if tool == nil {
		logging.Tools("dispatch rejected unknown tool: %s", name)
		return ErrorResult{Error: fmt.Sprintf("Unknown tool: %s", name)}
	}

	for _, required := range tool.Required {
		if _, ok := args[required]; !ok {
			return ErrorResult{Error: fmt.Sprintf("%v: %s", ErrMissingRequiredArg, required)}
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.Tools("tool %s panicked: %v", name, rec)
			result = ErrorResult{Error: fmt.Sprintf("tool %s panicked: %v", name, rec)}
		}
	}()

	start := time.Now()
	logging.ToolsDebug("executing tool: %s", name)
	out, err := tool.Execute(ctx, args)
	logging.ToolsDebug("tool %s completed in %v (success=%v)", name, time.Since(start), err == nil)
	if err != nil {
		return ErrorResult{Error: err.Error()}
	}
	return out
}
