package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type historyResponse struct {
	Items []historyItem `json:"items"`
}

type historyItem struct {
	TimeMs  int64 `json:"timeMs"`
	Details struct {
		TxHash    string `json:"txHash"`
		Type      string `json:"type"`
		Status    string `json:"status"`
		FromAddr  string `json:"fromAddress"`
		ToAddr    string `json:"toAddress"`
		TokenActs []struct {
			Address   string `json:"address"`
			Amount    string `json:"amount"`
			Direction string `json:"direction"`
		} `json:"tokenActions"`
	} `json:"details"`
}

// HistoryTool lists recent wallet activity via the 1inch history API.
func HistoryTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "transaction_history",
		Description: "Get recent transaction history for a wallet: transfers, swaps, approvals, " +
			"with timestamps and counterparties. Pass txHash to find one specific transaction.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"walletAddress": map[string]interface{}{
					"type":        "string",
					"description": "Wallet address to inspect.",
				},
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Chain name or ID. Defaults to ethereum.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum events to return (default 10, max 50).",
				},
				"txHash": map[string]interface{}{
					"type":        "string",
					"description": "Filter to a single transaction hash.",
				},
			},
			"required": []string{"walletAddress"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			wallet := stringArg(args, "walletAddress")
			if !isAddress(wallet) {
				return nil, fmt.Errorf("invalid wallet address %q", wallet)
			}
			chainID, err := resolveChain(stringArg(args, "chain"))
			if err != nil {
				return nil, err
			}
			limit := intArg(args, "limit", 10)
			if limit <= 0 || limit > 50 {
				limit = 10
			}

			var resp historyResponse
			if txHash := stringArg(args, "txHash"); txHash != "" {
				// Filtered lookups go through the search endpoint, which takes
				// its filters in the request body.
				body := map[string]interface{}{
					"filter": map[string]interface{}{
						"and": map[string]interface{}{
							"chain_ids":        []string{fmt.Sprintf("%d", chainID)},
							"transaction_hash": map[string]string{"hash": txHash},
						},
						"limit": limit,
					},
				}
				path := fmt.Sprintf("/history/v2.0/history/%s/search/events", wallet)
				if err := client.post(ctx, path, body, &resp.Items); err != nil {
					return nil, err
				}
			} else {
				query := url.Values{}
				query.Set("chainId", fmt.Sprintf("%d", chainID))
				query.Set("limit", fmt.Sprintf("%d", limit))

				path := fmt.Sprintf("/history/v2.0/history/%s/events", wallet)
				if err := client.get(ctx, path, query, &resp); err != nil {
					return nil, err
				}
			}
			if len(resp.Items) == 0 {
				return fmt.Sprintf("No recent activity for %s on %s.", wallet, chainName(chainID)), nil
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "Recent activity for %s on %s:\n", wallet, chainName(chainID))
			for _, item := range resp.Items {
				ts := time.UnixMilli(item.TimeMs).UTC().Format("2006-01-02 15:04")
				fmt.Fprintf(&sb, "- [%s] %s (%s) tx %s\n", ts, item.Details.Type, item.Details.Status, shortHash(item.Details.TxHash))
				for _, action := range item.Details.TokenActs {
					fmt.Fprintf(&sb, "  %s %s of token %s\n", action.Direction, action.Amount, action.Address)
				}
			}
			return sb.String(), nil
		},
	}
}

func shortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:10] + "..." + h[len(h)-4:]
}
