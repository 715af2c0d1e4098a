package tools

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type gasPriceResponse struct {
	BaseFee string      `json:"baseFee"`
	Low     gasFeeLevel `json:"low"`
	Medium  gasFeeLevel `json:"medium"`
	High    gasFeeLevel `json:"high"`
	Instant gasFeeLevel `json:"instant"`
}

type gasFeeLevel struct {
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
}

// GasTool reports EIP-1559 gas prices from the 1inch gas-price API.
func GasTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "gas_prices",
		Description: "Get current gas prices (base fee and low/medium/high/instant tiers) for a chain. " +
			"Use for questions like 'is gas expensive right now'.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Chain name or ID. Defaults to ethereum.",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			chainID, err := resolveChain(stringArg(args, "chain"))
			if err != nil {
				return nil, err
			}

			var resp gasPriceResponse
			path := fmt.Sprintf("/gas-price/v1.6/%d", chainID)
			if err := client.get(ctx, path, nil, &resp); err != nil {
				return nil, err
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "Gas prices on %s:\n", chainName(chainID))
			fmt.Fprintf(&sb, "- Base fee: %s gwei\n", weiToGwei(resp.BaseFee))
			fmt.Fprintf(&sb, "- Low: %s gwei (priority %s gwei)\n", weiToGwei(resp.Low.MaxFeePerGas), weiToGwei(resp.Low.MaxPriorityFeePerGas))
			fmt.Fprintf(&sb, "- Medium: %s gwei (priority %s gwei)\n", weiToGwei(resp.Medium.MaxFeePerGas), weiToGwei(resp.Medium.MaxPriorityFeePerGas))
			fmt.Fprintf(&sb, "- High: %s gwei (priority %s gwei)\n", weiToGwei(resp.High.MaxFeePerGas), weiToGwei(resp.High.MaxPriorityFeePerGas))
			fmt.Fprintf(&sb, "- Instant: %s gwei (priority %s gwei)\n", weiToGwei(resp.Instant.MaxFeePerGas), weiToGwei(resp.Instant.MaxPriorityFeePerGas))
			return sb.String(), nil
		},
	}
}

// weiToGwei formats a wei amount as gwei with up to 2 fractional digits.
func weiToGwei(wei string) string {
	value, ok := new(big.Int).SetString(wei, 10)
	if !ok {
		return wei
	}
	gwei := new(big.Rat).SetFrac(value, big.NewInt(1_000_000_000))
	return strings.TrimRight(strings.TrimRight(gwei.FloatString(2), "0"), ".")
}
