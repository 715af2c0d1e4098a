package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

// Registry holds the tools available to the orchestration loop. Registration
// happens once at startup; execution is read-only, so no locking is needed.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger *logger.Logger

	// onExecute, when set, observes every dispatch outcome (metrics hook).
	onExecute func(tool string, err error)
}

// NewRegistry creates an empty tool registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: log,
	}
}

// OnExecute installs an observer called after every tool dispatch with the
// handler error (nil on success). Unknown-tool dispatches are reported with a
// non-nil error as well.
func (r *Registry) OnExecute(fn func(tool string, err error)) {
	r.onExecute = fn
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(tool Tool) {
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

// RegisterAll registers every tool in the slice.
func (r *Registry) RegisterAll(tools []Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns the model-facing definitions in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute dispatches a tool call and returns a textual result plus the raw
// handler value. Failures never propagate: unknown tools and handler errors
// are rendered as result text so the loop can hand them back to the model.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (string, interface{}) {
	tool, ok := r.tools[name]
	if !ok {
		r.logger.Warn("unknown tool requested", "tool", name)
		err := fmt.Errorf("tool %q not found", name)
		r.observe(name, err)
		return fmt.Sprintf("Tool %q is not available. Available tools: %v", name, r.Names()), nil
	}

	result, err := tool.Handler(ctx, args)
	r.observe(name, err)
	if err != nil {
		r.logger.Warn("tool execution failed", "tool", name, "error", err)
		return fmt.Sprintf("Error executing tool %s: %v", name, err), nil
	}
	return renderToolResult(result), result
}

func (r *Registry) observe(name string, err error) {
	if r.onExecute != nil {
		r.onExecute(name, err)
	}
}

// renderToolResult converts a handler value into the text handed back to the
// model. String results pass through; structured results prefer a "message"
// field and fall back to JSON.
func renderToolResult(result interface{}) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}
