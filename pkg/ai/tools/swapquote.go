package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type swapQuoteResponse struct {
	DstAmount string `json:"dstAmount"`
	SrcToken  struct {
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	} `json:"srcToken"`
	DstToken struct {
		Symbol   string `json:"symbol"`
		Decimals int    `json:"decimals"`
	} `json:"dstToken"`
}

// SwapQuoteTool quotes a swap through the 1inch aggregation API. Actual
// execution goes through the swap endpoints, not the chat loop.
func SwapQuoteTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "oneinch_fusion_swap",
		Description: "Get a swap quote: how much of the destination token the user would receive " +
			"for a given amount of the source token. Amounts are in the token's smallest unit " +
			"(wei for ETH). Quotes only; execution is confirmed separately by the user.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"srcToken": map[string]interface{}{
					"type":        "string",
					"description": "Source token symbol or address.",
				},
				"dstToken": map[string]interface{}{
					"type":        "string",
					"description": "Destination token symbol or address.",
				},
				"amount": map[string]interface{}{
					"type":        "string",
					"description": "Amount to swap in the source token's smallest unit.",
				},
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Chain name or ID. Defaults to ethereum.",
				},
			},
			"required": []string{"srcToken", "dstToken", "amount"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			chainID, err := resolveChain(stringArg(args, "chain"))
			if err != nil {
				return nil, err
			}
			src, err := resolveToken(chainID, stringArg(args, "srcToken"))
			if err != nil {
				return nil, err
			}
			dst, err := resolveToken(chainID, stringArg(args, "dstToken"))
			if err != nil {
				return nil, err
			}
			amount := stringArg(args, "amount")
			if amount == "" || strings.ContainsAny(amount, ".-") {
				return nil, fmt.Errorf("amount must be a positive integer in the token's smallest unit")
			}

			query := url.Values{}
			query.Set("src", src)
			query.Set("dst", dst)
			query.Set("amount", amount)
			query.Set("includeTokensInfo", "true")

			var quote swapQuoteResponse
			path := fmt.Sprintf("/swap/v5.2/%d/quote", chainID)
			if err := client.get(ctx, path, query, &quote); err != nil {
				return nil, err
			}

			srcSymbol := quote.SrcToken.Symbol
			dstSymbol := quote.DstToken.Symbol
			var sb strings.Builder
			fmt.Fprintf(&sb, "Swap quote on %s:\n", chainName(chainID))
			fmt.Fprintf(&sb, "- You give: %s %s\n", formatUnits(amount, quote.SrcToken.Decimals), srcSymbol)
			fmt.Fprintf(&sb, "- You receive (estimated): %s %s\n", formatUnits(quote.DstAmount, quote.DstToken.Decimals), dstSymbol)
			sb.WriteString("This is an indicative quote; the final rate is fixed at execution time.")
			return sb.String(), nil
		},
	}
}
