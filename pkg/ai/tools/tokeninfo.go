package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type tokenInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

type tokenListResponse struct {
	Tokens map[string]tokenInfo `json:"tokens"`
}

// TokenInfoTool resolves token metadata via the 1inch token API.
func TokenInfoTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "get_token_info",
		Description: "Get metadata for a token (name, symbol, decimals, logo) by symbol or contract " +
			"address. Use before interpreting raw balance amounts.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Token symbol or contract address.",
				},
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Chain name or ID. Defaults to ethereum.",
				},
			},
			"required": []string{"token"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			chainID, err := resolveChain(stringArg(args, "chain"))
			if err != nil {
				return nil, err
			}
			token := stringArg(args, "token")
			if token == "" {
				return nil, fmt.Errorf("token is required")
			}

			var list tokenListResponse
			path := fmt.Sprintf("/swap/v5.2/%d/tokens", chainID)
			if err := client.get(ctx, path, nil, &list); err != nil {
				return nil, err
			}

			var match *tokenInfo
			if isAddress(token) {
				if info, ok := list.Tokens[strings.ToLower(token)]; ok {
					match = &info
				}
			} else {
				upper := strings.ToUpper(token)
				for _, info := range list.Tokens {
					if strings.ToUpper(info.Symbol) == upper {
						m := info
						match = &m
						break
					}
				}
			}
			if match == nil && isAddress(token) {
				// The curated list only covers well-known tokens; fall back to
				// the per-token endpoint for arbitrary contracts.
				var info tokenInfo
				detailPath := fmt.Sprintf("/token/v1.2/%d/%s", chainID, strings.ToLower(token))
				if err := client.get(ctx, detailPath, nil, &info); err == nil && info.Symbol != "" {
					match = &info
				}
			}
			if match == nil {
				return fmt.Sprintf("Token %q was not found on %s.", token, chainName(chainID)), nil
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "%s (%s) on %s:\n", match.Name, match.Symbol, chainName(chainID))
			fmt.Fprintf(&sb, "- Address: %s\n", match.Address)
			fmt.Fprintf(&sb, "- Decimals: %d\n", match.Decimals)
			if match.LogoURI != "" {
				fmt.Fprintf(&sb, "**Logo:** %s\n", match.LogoURI)
			}
			return sb.String(), nil
		},
	}
}
