package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type portfolioValueResponse struct {
	Result struct {
		Total    float64 `json:"total"`
		ByChains []struct {
			ChainID int64   `json:"chain_id"`
			Value   float64 `json:"value_usd"`
		} `json:"by_chain"`
	} `json:"result"`
}

// PortfolioTool summarizes portfolio value via the 1inch portfolio API.
func PortfolioTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "portfolio_overview",
		Description: "Get the total USD value of a wallet's portfolio across chains, or a detailed " +
			"position report. Use for 'how much am I worth' or 'portfolio performance' questions.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"operation": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"current_value", "report"},
					"description": "current_value for the USD total per chain, report for a detailed position breakdown. Defaults to current_value.",
				},
				"walletAddress": map[string]interface{}{
					"type":        "string",
					"description": "Wallet address to evaluate.",
				},
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Limit the report to one chain. Defaults to all chains.",
				},
			},
			"required": []string{"walletAddress"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			wallet := stringArg(args, "walletAddress")
			if !isAddress(wallet) {
				return nil, fmt.Errorf("invalid wallet address %q", wallet)
			}

			if stringArg(args, "operation") == "report" {
				return portfolioReport(ctx, client, wallet, stringArg(args, "chain"))
			}

			query := url.Values{}
			query.Set("addresses", wallet)

			var resp portfolioValueResponse
			if err := client.get(ctx, "/portfolio/portfolio/v5.0/general/current_value", query, &resp); err != nil {
				return nil, err
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "Portfolio value for %s: $%.2f total.\n", wallet, resp.Result.Total)
			for _, chain := range resp.Result.ByChains {
				if chain.Value <= 0 {
					continue
				}
				fmt.Fprintf(&sb, "- %s: $%.2f\n", chainName(chain.ChainID), chain.Value)
			}
			return sb.String(), nil
		},
	}
}

// portfolioReport fetches the CSV position report and trims it to a size the
// model can digest.
func portfolioReport(ctx context.Context, client *Client, wallet, chain string) (interface{}, error) {
	query := url.Values{}
	query.Set("addresses", wallet)
	if chain != "" {
		chainID, err := resolveChain(chain)
		if err != nil {
			return nil, err
		}
		query.Set("chain_id", fmt.Sprintf("%d", chainID))
	}

	csv, err := client.getText(ctx, "/portfolio/portfolio/v5.0/general/report", query)
	if err != nil {
		return nil, err
	}
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return fmt.Sprintf("No portfolio positions found for %s.", wallet), nil
	}

	lines := strings.Split(csv, "\n")
	const maxLines = 40
	if len(lines) > maxLines {
		lines = append(lines[:maxLines], fmt.Sprintf("... (%d more rows)", len(lines)-maxLines))
	}
	return fmt.Sprintf("Portfolio report for %s:\n%s", wallet, strings.Join(lines, "\n")), nil
}
