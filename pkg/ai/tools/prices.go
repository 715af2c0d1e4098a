package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

// PricesTool returns spot prices from the 1inch price API.
func PricesTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "token_prices",
		Description: "Get current spot prices for tokens. Accepts token symbols (ETH, USDC) or " +
			"contract addresses; prices are quoted in the requested fiat currency (default USD).",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"tokens": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Token symbols or contract addresses to price.",
				},
				"currency": map[string]interface{}{
					"type":        "string",
					"description": "Quote currency, e.g. USD, EUR. Defaults to USD.",
				},
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Chain name or ID. Defaults to ethereum.",
				},
			},
			"required": []string{"tokens"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			chainID, err := resolveChain(stringArg(args, "chain"))
			if err != nil {
				return nil, err
			}
			tokens := stringSliceArg(args, "tokens")
			if len(tokens) == 0 {
				return nil, fmt.Errorf("tokens is required")
			}
			currency := strings.ToUpper(stringArg(args, "currency"))
			if currency == "" {
				currency = "USD"
			}

			resolved := make([]string, 0, len(tokens))
			labels := make(map[string]string, len(tokens))
			for _, t := range tokens {
				addr, err := resolveToken(chainID, t)
				if err != nil {
					return nil, err
				}
				resolved = append(resolved, addr)
				labels[addr] = strings.ToUpper(t)
			}

			query := url.Values{}
			query.Set("currency", currency)

			var prices map[string]string
			path := fmt.Sprintf("/price/v1.1/%d/%s", chainID, strings.Join(resolved, ","))
			if err := client.get(ctx, path, query, &prices); err != nil {
				return nil, err
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "Current prices on %s (%s):\n", chainName(chainID), currency)
			for _, addr := range resolved {
				price, ok := prices[addr]
				if !ok {
					fmt.Fprintf(&sb, "- %s: no price available\n", labels[addr])
					continue
				}
				fmt.Fprintf(&sb, "- %s: %s %s\n", labels[addr], price, currency)
			}
			return sb.String(), nil
		},
	}
}
