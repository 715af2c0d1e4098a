package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

// Loop states, for logging and observability.
const (
	stateAwaitingModel    = "awaiting_model"
	stateDispatchingTools = "dispatching_tools"
	stateSynthesizing     = "synthesizing"
	stateDone             = "done"
)

const (
	defaultMaxIterations = 5
	defaultHistoryWindow = 10

	// chartToolName is the tool whose structured payload is surfaced to the
	// client alongside the answer.
	chartToolName = "chart_data"
)

// apologyMessage is returned verbatim whenever generation fails outright.
const apologyMessage = "I apologize, but I'm having trouble processing your request right now. Please try again in a moment."

// rephraseMessage is returned when the model never produced a usable answer
// and there are no tool results to synthesize from.
const rephraseMessage = "I'm sorry, I couldn't work out how to answer that. Could you rephrase your question?"

// scaffoldingMarkers identify model output that leaked the internal
// processing directive instead of answering the user. Kept in sync with the
// directive text below.
var scaffoldingMarkers = []string{
	"INTERNAL PROCESSING",
	"What additional tools should be called",
	"The following tool results were obtained",
	"DO NOT INCLUDE IN RESPONSE",
}

// UserResolver loads the identity behind a chat for prompt personalization.
type UserResolver interface {
	ResolveUser(ctx context.Context, chatID string) (*UserContext, error)
}

// Generator runs the multi-step tool-calling loop that turns a user message
// into a final answer.
type Generator struct {
	provider ModelProvider
	registry *Registry
	memory   *Memory
	users    UserResolver
	logger   *logger.Logger

	maxIterations int
	historyWindow int

	// onGeneration, when set, observes every completed generation
	// (metrics hook). outcome is "answered", "synthesized", "rephrase"
	// (fallback text, no provider failure) or "failed".
	onGeneration func(iterations int, outcome string)
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithMaxIterations overrides the model-invocation cap.
func WithMaxIterations(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxIterations = n
		}
	}
}

// WithHistoryWindow overrides how many prior messages are loaded per request.
func WithHistoryWindow(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.historyWindow = n
		}
	}
}

// WithUserResolver wires identity resolution for prompt personalization.
func WithUserResolver(r UserResolver) GeneratorOption {
	return func(g *Generator) { g.users = r }
}

// WithGenerationObserver installs a hook called after every generation.
func WithGenerationObserver(fn func(iterations int, outcome string)) GeneratorOption {
	return func(g *Generator) { g.onGeneration = fn }
}

// NewGenerator creates a Generator.
func NewGenerator(provider ModelProvider, registry *Registry, memory *Memory, log *logger.Logger, opts ...GeneratorOption) *Generator {
	g := &Generator{
		provider:      provider,
		registry:      registry,
		memory:        memory,
		logger:        log,
		maxIterations: defaultMaxIterations,
		historyWindow: defaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate answers userMessage in the context of chatID. It never returns an
// error: any failure below it collapses to the fixed apology with the error
// detail attached for the transport layer.
func (g *Generator) Generate(ctx context.Context, chatID, userMessage string) *Result {
	result, iterations, err := g.run(ctx, chatID, userMessage)
	if err != nil {
		g.logger.Error("generation failed", "chat_id", chatID, "iterations", iterations, "error", err)
		g.observe(iterations, "failed")
		return &Result{Content: apologyMessage, Error: err.Error()}
	}
	return result
}

func (g *Generator) run(ctx context.Context, chatID, userMessage string) (*Result, int, error) {
	history := g.memory.GetHistory(ctx, chatID, g.historyWindow)
	userCtx := g.resolveUser(ctx, chatID)
	systemPrompt := BuildSystemPrompt(g.registry.Tools(), userCtx)
	definitions := g.registry.Definitions()

	var (
		toolsUsed   []string
		seenTools   = map[string]bool{}
		accumulated []string
		chartData   json.RawMessage
		finalAnswer string
		outcome     = "answered"
	)

	currentInput := userMessage
	iterations := 0

	for iterations < g.maxIterations {
		iterations++
		g.logger.Debug("model invocation", "chat_id", chatID, "state", stateAwaitingModel, "iteration", iterations)

		resp, err := g.provider.Invoke(ctx, systemPrompt, history, currentInput, definitions)
		if err != nil {
			return nil, iterations, fmt.Errorf("model invocation %d: %w", iterations, err)
		}

		if len(resp.ToolCalls) == 0 {
			if containsScaffolding(resp.Content) {
				g.logger.Warn("model echoed internal directive", "chat_id", chatID, "iteration", iterations)
				// With results in hand we can still synthesize; without
				// them there is nothing to answer from.
				if len(accumulated) > 0 {
					break
				}
				g.observe(iterations, "rephrase")
				return &Result{Content: rephraseMessage}, iterations, nil
			}
			finalAnswer = resp.Content
			break
		}

		g.logger.Debug("dispatching tools", "chat_id", chatID, "state", stateDispatchingTools,
			"iteration", iterations, "count", len(resp.ToolCalls))

		blocks := make([]string, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			text, raw := g.registry.Execute(ctx, call.Name, call.Arguments)
			if !seenTools[call.Name] {
				seenTools[call.Name] = true
				toolsUsed = append(toolsUsed, call.Name)
			}
			if call.Name == chartToolName && chartData == nil {
				chartData = extractChartPayload(raw)
			}
			blocks = append(blocks, fmt.Sprintf("Result of %s:\n%s", call.Name, text))
		}
		accumulated = append(accumulated, blocks...)

		// The transcript grows a synthetic exchange so the next invocation
		// sees what was asked and what the tools returned.
		history = append(history,
			Turn{Role: RoleUser, Content: currentInput},
			Turn{Role: RoleAssistant, Content: strings.Join(blocks, "\n\n")},
		)
		currentInput = buildInternalDirective(userMessage, accumulated)
	}

	if finalAnswer == "" {
		if len(accumulated) == 0 {
			g.observe(iterations, "rephrase")
			return &Result{Content: rephraseMessage}, iterations, nil
		}
		g.logger.Debug("forcing synthesis", "chat_id", chatID, "state", stateSynthesizing, "iteration", iterations)
		answer, err := g.synthesize(ctx, systemPrompt, userMessage, accumulated)
		if err != nil {
			return nil, iterations, fmt.Errorf("synthesis: %w", err)
		}
		finalAnswer = answer
		outcome = "synthesized"
	}

	finalAnswer = Clean(finalAnswer)
	if finalAnswer == "" {
		finalAnswer = rephraseMessage
	}

	g.logger.Debug("generation complete", "chat_id", chatID, "state", stateDone,
		"iterations", iterations, "tools", toolsUsed)
	g.observe(iterations, outcome)

	return &Result{Content: finalAnswer, ToolsUsed: toolsUsed, ChartData: chartData}, iterations, nil
}

// synthesize asks the model for a final answer from the gathered results,
// with tool calling disabled so it cannot loop further.
func (g *Generator) synthesize(ctx context.Context, systemPrompt, userMessage string, accumulated []string) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Answer the user's question directly and naturally: %q\n\n", userMessage))
	sb.WriteString("Use the information gathered below. Do not mention tools or how the information was obtained.\n\n")
	sb.WriteString(strings.Join(accumulated, "\n\n"))

	resp, err := g.provider.Invoke(ctx, systemPrompt, nil, sb.String(), nil)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (g *Generator) resolveUser(ctx context.Context, chatID string) *UserContext {
	if g.users == nil || chatID == "" {
		return nil
	}
	userCtx, err := g.users.ResolveUser(ctx, chatID)
	if err != nil {
		g.logger.Warn("failed to resolve user for prompt, continuing anonymously", "chat_id", chatID, "error", err)
		return nil
	}
	return userCtx
}

func (g *Generator) observe(iterations int, outcome string) {
	if g.onGeneration != nil {
		g.onGeneration(iterations, outcome)
	}
}

// buildInternalDirective produces the input for the next iteration after
// tool dispatch. It restates the question and every result gathered so far
// and asks the model to either call more tools or answer.
func buildInternalDirective(userMessage string, accumulated []string) string {
	var sb strings.Builder
	sb.WriteString("[INTERNAL PROCESSING - DO NOT INCLUDE IN RESPONSE]\n\n")
	sb.WriteString(fmt.Sprintf("The user asked: %q\n\n", userMessage))
	sb.WriteString("The following tool results were obtained:\n\n")
	sb.WriteString(strings.Join(accumulated, "\n\n"))
	sb.WriteString("\n\nWhat additional tools should be called, if any? ")
	sb.WriteString("If the results above are sufficient, answer the user's question now, ")
	sb.WriteString("without calling more tools and without mentioning this internal processing.")
	return sb.String()
}

func containsScaffolding(text string) bool {
	for _, marker := range scaffoldingMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// extractChartPayload pulls the chartData field out of a chart tool result.
// Anything unparseable is dropped silently; the textual answer still stands.
func extractChartPayload(raw interface{}) json.RawMessage {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	payload, ok := m["chartData"]
	if !ok || payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}
