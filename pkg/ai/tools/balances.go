package tools

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type balanceEntry struct {
	Symbol   string
	Address  string
	Raw      string
	Decimals int
}

// BalancesTool reports ERC-20 and native balances for a wallet via the 1inch
// balance API.
func BalancesTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "token_balances",
		Description: "Get token balances for a wallet. Operations: all_balances (every token with a " +
			"non-zero balance on one chain), custom_tokens (balances of specific token addresses), " +
			"multiple_wallets (one token across several wallets). Defaults to ethereum.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"operation": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"all_balances", "custom_tokens", "multiple_wallets"},
					"description": "Which balance lookup to perform. Defaults to all_balances.",
				},
				"walletAddress": map[string]interface{}{
					"type":        "string",
					"description": "Wallet address (0x...) to inspect.",
				},
				"wallets": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Wallet addresses for multiple_wallets.",
				},
				"tokens": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Token contract addresses for custom_tokens and multiple_wallets.",
				},
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Chain name or ID, e.g. ethereum, polygon, base.",
				},
			},
			"required": []string{"walletAddress"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			chainID, err := resolveChain(stringArg(args, "chain"))
			if err != nil {
				return nil, err
			}
			operation := stringArg(args, "operation")
			if operation == "" {
				operation = "all_balances"
			}

			switch operation {
			case "all_balances":
				return allBalances(ctx, client, chainID, stringArg(args, "walletAddress"))
			case "custom_tokens":
				return customTokenBalances(ctx, client, chainID, stringArg(args, "walletAddress"), stringSliceArg(args, "tokens"))
			case "multiple_wallets":
				return multipleWalletBalances(ctx, client, chainID, stringSliceArg(args, "wallets"), stringSliceArg(args, "tokens"))
			default:
				return nil, fmt.Errorf("unknown operation %q", operation)
			}
		},
	}
}

func allBalances(ctx context.Context, client *Client, chainID int64, wallet string) (interface{}, error) {
	if !isAddress(wallet) {
		return nil, fmt.Errorf("invalid wallet address %q", wallet)
	}

	var raw map[string]string
	path := fmt.Sprintf("/balance/v1.2/%d/balances/%s", chainID, wallet)
	if err := client.get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}

	entries := make([]balanceEntry, 0, len(raw))
	for addr, amount := range raw {
		if amount == "0" || amount == "" {
			continue
		}
		entries = append(entries, balanceEntry{Address: addr, Raw: amount})
	}
	if len(entries) == 0 {
		return fmt.Sprintf("No token balances found for %s on %s.", wallet, chainName(chainID)), nil
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Address < entries[j].Address })

	var sb strings.Builder
	fmt.Fprintf(&sb, "Token balances for %s on %s (%d tokens with balance):\n", wallet, chainName(chainID), len(entries))
	for _, e := range entries {
		label := e.Address
		if e.Address == nativeToken {
			label = "native token"
		}
		fmt.Fprintf(&sb, "- %s: %s (raw)\n", label, e.Raw)
	}
	sb.WriteString("Raw amounts are in the token's smallest unit; use get_token_info for decimals and symbols.")
	return sb.String(), nil
}

func customTokenBalances(ctx context.Context, client *Client, chainID int64, wallet string, tokens []string) (interface{}, error) {
	if !isAddress(wallet) {
		return nil, fmt.Errorf("invalid wallet address %q", wallet)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("custom_tokens requires a tokens list")
	}
	resolved := make([]string, 0, len(tokens))
	for _, t := range tokens {
		addr, err := resolveToken(chainID, t)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, addr)
	}

	var raw map[string]string
	path := fmt.Sprintf("/balance/v1.2/%d/balances/%s", chainID, wallet)
	body := map[string]interface{}{"tokens": resolved}
	if err := client.post(ctx, path, body, &raw); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Balances for %s on %s:\n", wallet, chainName(chainID))
	for _, addr := range resolved {
		fmt.Fprintf(&sb, "- %s: %s (raw)\n", addr, raw[addr])
	}
	return sb.String(), nil
}

func multipleWalletBalances(ctx context.Context, client *Client, chainID int64, wallets, tokens []string) (interface{}, error) {
	if len(wallets) == 0 {
		return nil, fmt.Errorf("multiple_wallets requires a wallets list")
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("multiple_wallets requires a tokens list")
	}
	for _, w := range wallets {
		if !isAddress(w) {
			return nil, fmt.Errorf("invalid wallet address %q", w)
		}
	}
	resolved := make([]string, 0, len(tokens))
	for _, t := range tokens {
		addr, err := resolveToken(chainID, t)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, addr)
	}

	query := url.Values{}
	query.Set("wallets", strings.Join(wallets, ","))
	query.Set("tokens", strings.Join(resolved, ","))

	var raw map[string]map[string]string
	path := fmt.Sprintf("/balance/v1.2/%d/balances/multiple/walletsAndTokens", chainID)
	if err := client.get(ctx, path, query, &raw); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Balances on %s:\n", chainName(chainID))
	for _, w := range wallets {
		fmt.Fprintf(&sb, "Wallet %s:\n", w)
		for _, token := range resolved {
			fmt.Fprintf(&sb, "- %s: %s (raw)\n", token, raw[w][token])
		}
	}
	return sb.String(), nil
}
