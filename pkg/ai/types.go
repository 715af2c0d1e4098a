package ai

import (
	"context"
	"encoding/json"
)

// Role values for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single entry in the conversation transcript passed to the model.
type Turn struct {
	Role    string
	Content string
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// ModelResponse is what a single model invocation produced: either a plain
// answer, one or more tool calls, or both.
type ModelResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolDefinition is the model-facing description of a tool.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ModelProvider abstracts the LLM backend. A call with no tool definitions is
// a plain completion (used for synthesis); with definitions the model may
// request tool calls.
type ModelProvider interface {
	Invoke(ctx context.Context, systemPrompt string, history []Turn, input string, tools []ToolDefinition) (*ModelResponse, error)
}

// ToolHandler executes a tool call. The returned value is either a string or
// a JSON-marshalable structure; errors are converted to result text by the
// registry and never propagate.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Tool couples a model-facing definition with its handler.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Handler     ToolHandler
}

// UserContext is the per-request identity the prompt composer personalizes
// on. Nil when the request is anonymous or the user could not be resolved.
type UserContext struct {
	ID            string
	WalletAddress string
	Email         string
}

// Result is the outcome of a generation request.
type Result struct {
	Content   string          `json:"content"`
	ToolsUsed []string        `json:"toolsUsed,omitempty"`
	ChartData json.RawMessage `json:"chartData,omitempty"`
	Error     string          `json:"error,omitempty"`
}
