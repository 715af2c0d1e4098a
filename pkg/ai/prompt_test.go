package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPromptEnumeratesTools(t *testing.T) {
	tools := []Tool{
		{Name: "token_prices", Description: "Get spot prices for tokens"},
		{Name: "gas_prices", Description: "Get current gas prices"},
	}

	prompt := BuildSystemPrompt(tools, nil)

	assert.Contains(t, prompt, "1. token_prices: Get spot prices for tokens")
	assert.Contains(t, prompt, "2. gas_prices: Get current gas prices")
	assert.Contains(t, prompt, "No wallet is connected")
	assert.Contains(t, prompt, "render image URLs from tool results as markdown images")
	assert.Contains(t, prompt, "use that exact address; never truncate")
}

func TestBuildSystemPromptWithWallet(t *testing.T) {
	userCtx := &UserContext{
		ID:            "u1",
		WalletAddress: "0xAbC1234567890abcdef1234567890ABCDEF12345",
		Email:         "user@example.com",
	}

	prompt := BuildSystemPrompt(nil, userCtx)

	assert.Contains(t, prompt, "0xAbC1234567890abcdef1234567890ABCDEF12345")
	assert.Contains(t, prompt, "user@example.com")
	assert.NotContains(t, prompt, "No wallet is connected")
}

func TestBuildSystemPromptUserWithoutWalletIsAnonymous(t *testing.T) {
	prompt := BuildSystemPrompt(nil, &UserContext{ID: "u1"})
	assert.Contains(t, prompt, "No wallet is connected")
}
