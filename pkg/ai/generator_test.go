package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

type invocation struct {
	systemPrompt string
	history      []Turn
	input        string
	toolCount    int
}

// scriptedProvider returns canned responses in order and records every
// invocation.
type scriptedProvider struct {
	responses []*ModelResponse
	errs      []error
	calls     []invocation
}

func (p *scriptedProvider) Invoke(_ context.Context, systemPrompt string, history []Turn, input string, tools []ToolDefinition) (*ModelResponse, error) {
	idx := len(p.calls)
	p.calls = append(p.calls, invocation{
		systemPrompt: systemPrompt,
		history:      append([]Turn(nil), history...),
		input:        input,
		toolCount:    len(tools),
	})
	if idx < len(p.errs) && p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	if idx >= len(p.responses) {
		return &ModelResponse{Content: "fallback answer"}, nil
	}
	return p.responses[idx], nil
}

type fakeLister struct {
	messages []*db.Message
	err      error
}

func (f *fakeLister) ListRecentMessagesByChat(_ context.Context, _ string, limit int64) ([]*db.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if int64(len(f.messages)) > limit {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

func newTestGenerator(t *testing.T, provider ModelProvider, tools []Tool, opts ...GeneratorOption) *Generator {
	t.Helper()
	log := logger.NewNop()
	registry := NewRegistry(log)
	registry.RegisterAll(tools)
	memory := NewMemory(&fakeLister{}, log)
	return NewGenerator(provider, registry, memory, log, opts...)
}

func echoTool(name string, calls *[]map[string]interface{}) Tool {
	return Tool{
		Name:        name,
		Description: "test tool",
		Parameters:  map[string]interface{}{"type": "object"},
		Handler: func(_ context.Context, args map[string]interface{}) (interface{}, error) {
			if calls != nil {
				*calls = append(*calls, args)
			}
			return fmt.Sprintf("%s result", name), nil
		},
	}
}

func TestGenerateDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{
		{Content: "ETH is trading at $3,000."},
	}}
	g := newTestGenerator(t, provider, []Tool{echoTool("token_prices", nil)})

	result := g.Generate(context.Background(), "chat-1", "what is the price of ETH?")

	assert.Equal(t, "ETH is trading at $3,000.", result.Content)
	assert.Empty(t, result.ToolsUsed)
	assert.Empty(t, result.Error)
	require.Len(t, provider.calls, 1)
	assert.Equal(t, 1, provider.calls[0].toolCount)
}

func TestGenerateSingleToolRound(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{
		{ToolCalls: []ToolCall{
			{Name: "token_balances", Arguments: map[string]interface{}{"walletAddress": "0xabc"}},
			{Name: "token_balances", Arguments: map[string]interface{}{"walletAddress": "0xdef"}},
		}},
		{Content: "You hold 2 ETH."},
	}}
	var toolCalls []map[string]interface{}
	g := newTestGenerator(t, provider, []Tool{echoTool("token_balances", &toolCalls)})

	result := g.Generate(context.Background(), "chat-1", "what do I hold?")

	assert.Equal(t, "You hold 2 ETH.", result.Content)
	assert.Equal(t, []string{"token_balances"}, result.ToolsUsed, "tool names are deduplicated")
	assert.Len(t, toolCalls, 2, "every requested call is dispatched")

	// Second invocation sees the synthetic exchange and the directive.
	require.Len(t, provider.calls, 2)
	second := provider.calls[1]
	require.Len(t, second.history, 2)
	assert.Equal(t, RoleUser, second.history[0].Role)
	assert.Equal(t, "what do I hold?", second.history[0].Content)
	assert.Equal(t, RoleAssistant, second.history[1].Role)
	assert.Contains(t, second.history[1].Content, "token_balances result")
	assert.Contains(t, second.input, "INTERNAL PROCESSING")
	assert.Contains(t, second.input, `The user asked: "what do I hold?"`)
}

func TestGenerateForcedSynthesisAtIterationCap(t *testing.T) {
	// The model never stops asking for tools.
	toolResponse := &ModelResponse{ToolCalls: []ToolCall{
		{Name: "gas_prices", Arguments: map[string]interface{}{"chain": "ethereum"}},
	}}
	provider := &scriptedProvider{responses: []*ModelResponse{
		toolResponse, toolResponse, toolResponse, toolResponse, toolResponse,
		{Content: "Gas is cheap right now."},
	}}
	g := newTestGenerator(t, provider, []Tool{echoTool("gas_prices", nil)})

	result := g.Generate(context.Background(), "chat-1", "how is gas?")

	assert.Equal(t, "Gas is cheap right now.", result.Content)
	assert.Equal(t, []string{"gas_prices"}, result.ToolsUsed)

	// Five looped invocations with tools enabled, then exactly one
	// synthesis call with tool calling disabled.
	require.Len(t, provider.calls, 6)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, provider.calls[i].toolCount, "iteration %d", i)
	}
	synth := provider.calls[5]
	assert.Zero(t, synth.toolCount)
	assert.Contains(t, synth.input, `"how is gas?"`)
	assert.Contains(t, synth.input, "gas_prices result")
}

func TestGenerateScaffoldingWithoutResults(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{
		{Content: "[INTERNAL PROCESSING - DO NOT INCLUDE IN RESPONSE] What additional tools should be called?"},
	}}
	g := newTestGenerator(t, provider, nil)

	result := g.Generate(context.Background(), "chat-1", "hello")

	assert.Equal(t, rephraseMessage, result.Content)
	assert.Empty(t, result.Error)
	assert.Len(t, provider.calls, 1, "no synthesis without results")
}

func TestGenerateRephraseObservedAsItsOwnOutcome(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{
		{Content: "[INTERNAL PROCESSING - DO NOT INCLUDE IN RESPONSE] What additional tools should be called?"},
	}}
	var gotOutcome string
	g := newTestGenerator(t, provider, nil, WithGenerationObserver(func(_ int, outcome string) {
		gotOutcome = outcome
	}))

	result := g.Generate(context.Background(), "chat-1", "hello")

	assert.Equal(t, rephraseMessage, result.Content)
	// The generation completed with fallback text; only provider errors
	// count as failed.
	assert.Equal(t, "rephrase", gotOutcome)
}

func TestGenerateScaffoldingWithResultsTriggersSynthesis(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{
		{ToolCalls: []ToolCall{{Name: "token_prices", Arguments: map[string]interface{}{}}}},
		{Content: "The following tool results were obtained: ..."},
		{Content: "ETH is at $3,000."},
	}}
	g := newTestGenerator(t, provider, []Tool{echoTool("token_prices", nil)})

	result := g.Generate(context.Background(), "chat-1", "price of ETH?")

	assert.Equal(t, "ETH is at $3,000.", result.Content)
	require.Len(t, provider.calls, 3)
	assert.Zero(t, provider.calls[2].toolCount, "final call is a synthesis call")
}

func TestGenerateModelErrorYieldsApology(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("rate limited")}}
	g := newTestGenerator(t, provider, nil)

	result := g.Generate(context.Background(), "chat-1", "hello")

	assert.Equal(t, apologyMessage, result.Content)
	assert.Contains(t, result.Error, "rate limited")
	assert.Empty(t, result.ToolsUsed)
}

func TestGenerateSynthesisErrorYieldsApology(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*ModelResponse{
			{ToolCalls: []ToolCall{{Name: "token_prices", Arguments: map[string]interface{}{}}}},
			{Content: "The following tool results were obtained: ..."},
		},
		errs: []error{nil, nil, errors.New("model unavailable")},
	}
	g := newTestGenerator(t, provider, []Tool{echoTool("token_prices", nil)})

	result := g.Generate(context.Background(), "chat-1", "price of ETH?")

	assert.Equal(t, apologyMessage, result.Content)
	assert.Contains(t, result.Error, "model unavailable")
}

func TestGenerateToolFailureIsIsolated(t *testing.T) {
	failing := Tool{
		Name:        "transaction_history",
		Description: "test tool",
		Parameters:  map[string]interface{}{"type": "object"},
		Handler: func(_ context.Context, _ map[string]interface{}) (interface{}, error) {
			return nil, errors.New("upstream 500")
		},
	}
	provider := &scriptedProvider{responses: []*ModelResponse{
		{ToolCalls: []ToolCall{{Name: "transaction_history", Arguments: map[string]interface{}{}}}},
		{Content: "I couldn't fetch your history right now."},
	}}
	g := newTestGenerator(t, provider, []Tool{failing})

	result := g.Generate(context.Background(), "chat-1", "my recent txs?")

	assert.Equal(t, "I couldn't fetch your history right now.", result.Content)
	assert.Empty(t, result.Error)
	require.Len(t, provider.calls, 2)
	assert.Contains(t, provider.calls[1].input, "Error executing tool transaction_history")
}

func TestGenerateUnknownToolHandedBackToModel(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{
		{ToolCalls: []ToolCall{{Name: "no_such_tool", Arguments: map[string]interface{}{}}}},
		{Content: "done"},
	}}
	g := newTestGenerator(t, provider, []Tool{echoTool("token_prices", nil)})

	result := g.Generate(context.Background(), "chat-1", "hello")

	assert.Equal(t, "done", result.Content)
	assert.Equal(t, []string{"no_such_tool"}, result.ToolsUsed)
	assert.Contains(t, provider.calls[1].input, `"no_such_tool" is not available`)
}

func TestGenerateChartPayloadFirstWins(t *testing.T) {
	payloads := []map[string]interface{}{
		{"message": "chart one", "chartData": map[string]interface{}{"type": "line", "data": []interface{}{1.0, 2.0}}},
		{"message": "chart two", "chartData": map[string]interface{}{"type": "candle"}},
	}
	idx := 0
	chartTool := Tool{
		Name:        chartToolName,
		Description: "test chart",
		Parameters:  map[string]interface{}{"type": "object"},
		Handler: func(_ context.Context, _ map[string]interface{}) (interface{}, error) {
			p := payloads[idx]
			idx++
			return p, nil
		},
	}
	provider := &scriptedProvider{responses: []*ModelResponse{
		{ToolCalls: []ToolCall{
			{Name: chartToolName, Arguments: map[string]interface{}{}},
			{Name: chartToolName, Arguments: map[string]interface{}{}},
		}},
		{Content: "Here is the ETH chart."},
	}}
	g := newTestGenerator(t, provider, []Tool{chartTool})

	result := g.Generate(context.Background(), "chat-1", "chart ETH")

	require.NotNil(t, result.ChartData)
	assert.Contains(t, string(result.ChartData), `"type":"line"`)
	assert.NotContains(t, string(result.ChartData), "candle")
}

func TestGenerateChartPayloadMalformedIsDropped(t *testing.T) {
	chartTool := Tool{
		Name:        chartToolName,
		Description: "test chart",
		Parameters:  map[string]interface{}{"type": "object"},
		Handler: func(_ context.Context, _ map[string]interface{}) (interface{}, error) {
			return "plain text, no payload", nil
		},
	}
	provider := &scriptedProvider{responses: []*ModelResponse{
		{ToolCalls: []ToolCall{{Name: chartToolName, Arguments: map[string]interface{}{}}}},
		{Content: "No chart available."},
	}}
	g := newTestGenerator(t, provider, []Tool{chartTool})

	result := g.Generate(context.Background(), "chat-1", "chart ETH")

	assert.Equal(t, "No chart available.", result.Content)
	assert.Nil(t, result.ChartData)
}

func TestGenerateFinalAnswerIsCleaned(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{
		{ToolCalls: []ToolCall{{Name: "domain_operations", Arguments: map[string]interface{}{}}}},
		{Content: "vitalik.eth resolves fine.\nThe following tool results were obtained: leak\n**Avatar:** https://metadata.ens.domains/mainnet/avatar/vitalik.eth"},
	}}
	g := newTestGenerator(t, provider, []Tool{echoTool("domain_operations", nil)})

	result := g.Generate(context.Background(), "chat-1", "who is vitalik.eth?")

	assert.NotContains(t, result.Content, "tool results were obtained")
	assert.Contains(t, result.Content, "![Avatar](https://metadata.ens.domains/mainnet/avatar/vitalik.eth)")
}

func TestGenerateUsesWalletInSystemPrompt(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{{Content: "hi"}}}
	resolver := userResolverFunc(func(_ context.Context, chatID string) (*UserContext, error) {
		return &UserContext{ID: "u1", WalletAddress: "0x1234567890abcdef1234567890abcdef12345678"}, nil
	})
	g := newTestGenerator(t, provider, nil, WithUserResolver(resolver))

	g.Generate(context.Background(), "chat-1", "hello")

	require.Len(t, provider.calls, 1)
	assert.Contains(t, provider.calls[0].systemPrompt, "0x1234567890abcdef1234567890abcdef12345678")
}

func TestGenerateResolverFailureFallsBackToAnonymous(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{{Content: "hi"}}}
	resolver := userResolverFunc(func(_ context.Context, _ string) (*UserContext, error) {
		return nil, errors.New("db down")
	})
	g := newTestGenerator(t, provider, nil, WithUserResolver(resolver))

	result := g.Generate(context.Background(), "chat-1", "hello")

	assert.Equal(t, "hi", result.Content)
	assert.Contains(t, provider.calls[0].systemPrompt, "No wallet is connected")
}

func TestGenerateObserverReportsOutcome(t *testing.T) {
	var gotIterations int
	var gotOutcome string
	provider := &scriptedProvider{responses: []*ModelResponse{{Content: "hi"}}}
	g := newTestGenerator(t, provider, nil, WithGenerationObserver(func(iterations int, outcome string) {
		gotIterations = iterations
		gotOutcome = outcome
	}))

	g.Generate(context.Background(), "chat-1", "hello")

	assert.Equal(t, 1, gotIterations)
	assert.Equal(t, "answered", gotOutcome)
}

func TestInternalDirectiveAccumulatesAcrossIterations(t *testing.T) {
	provider := &scriptedProvider{responses: []*ModelResponse{
		{ToolCalls: []ToolCall{{Name: "token_prices", Arguments: map[string]interface{}{}}}},
		{ToolCalls: []ToolCall{{Name: "gas_prices", Arguments: map[string]interface{}{}}}},
		{Content: "done"},
	}}
	g := newTestGenerator(t, provider, []Tool{echoTool("token_prices", nil), echoTool("gas_prices", nil)})

	result := g.Generate(context.Background(), "chat-1", "prices and gas?")

	assert.Equal(t, []string{"token_prices", "gas_prices"}, result.ToolsUsed)
	require.Len(t, provider.calls, 3)
	third := provider.calls[2].input
	assert.Contains(t, third, "token_prices result")
	assert.Contains(t, third, "gas_prices result")
	assert.True(t, strings.Index(third, "token_prices result") < strings.Index(third, "gas_prices result"),
		"results keep dispatch order")
}

type userResolverFunc func(ctx context.Context, chatID string) (*UserContext, error)

func (f userResolverFunc) ResolveUser(ctx context.Context, chatID string) (*UserContext, error) {
	return f(ctx, chatID)
}
