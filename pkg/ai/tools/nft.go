package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type nftListResponse struct {
	Assets []nftAsset `json:"assets"`
}

type nftAsset struct {
	TokenID  string `json:"token_id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	ChainID  int64  `json:"chainId"`
	Asset    struct {
		Name string `json:"name"`
	} `json:"asset_contract"`
}

// NFTTool queries the 1inch NFT API.
func NFTTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "nft_operations",
		Description: "Look up NFTs. Operations: supported_chains (chains with NFT coverage), " +
			"wallet_nfts (NFTs owned by a wallet), nft_details (one NFT by contract and token id).",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"operation": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"supported_chains", "wallet_nfts", "nft_details"},
					"description": "Which lookup to perform.",
				},
				"walletAddress": map[string]interface{}{
					"type":        "string",
					"description": "Wallet address for wallet_nfts.",
				},
				"contract": map[string]interface{}{
					"type":        "string",
					"description": "NFT contract address for nft_details.",
				},
				"tokenId": map[string]interface{}{
					"type":        "string",
					"description": "Token id within the contract for nft_details.",
				},
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Chain name or ID. Defaults to ethereum.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum NFTs to return (default 10).",
				},
			},
			"required": []string{"operation"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			switch op := stringArg(args, "operation"); op {
			case "supported_chains":
				var chains []int64
				if err := client.get(ctx, "/nft/v2/supportedchains", nil, &chains); err != nil {
					return nil, err
				}
				names := make([]string, 0, len(chains))
				for _, id := range chains {
					names = append(names, chainName(id))
				}
				return "NFT lookups are supported on: " + strings.Join(names, ", "), nil

			case "wallet_nfts":
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

				query := url.Values{}
				query.Set("chainIds", fmt.Sprintf("%d", chainID))
				query.Set("address", wallet)
				query.Set("limit", fmt.Sprintf("%d", limit))

				var resp nftListResponse
				if err := client.get(ctx, "/nft/v2/byaddress", query, &resp); err != nil {
					return nil, err
				}
				if len(resp.Assets) == 0 {
					return fmt.Sprintf("No NFTs found for %s on %s.", wallet, chainName(chainID)), nil
				}

				var sb strings.Builder
				fmt.Fprintf(&sb, "NFTs owned by %s on %s:\n", wallet, chainName(chainID))
				for _, asset := range resp.Assets {
					name := asset.Name
					if name == "" {
						name = fmt.Sprintf("%s #%s", asset.Asset.Name, asset.TokenID)
					}
					fmt.Fprintf(&sb, "- %s (token %s)\n", name, asset.TokenID)
					if asset.ImageURL != "" {
						fmt.Fprintf(&sb, "  **Image:** %s\n", asset.ImageURL)
					}
				}
				return sb.String(), nil

			case "nft_details":
				contract := stringArg(args, "contract")
				if !isAddress(contract) {
					return nil, fmt.Errorf("invalid contract address %q", contract)
				}
				tokenID := stringArg(args, "tokenId")
				if tokenID == "" {
					return nil, fmt.Errorf("nft_details requires a tokenId")
				}
				chainID, err := resolveChain(stringArg(args, "chain"))
				if err != nil {
					return nil, err
				}

				query := url.Values{}
				query.Set("chainId", fmt.Sprintf("%d", chainID))
				query.Set("contract", contract)
				query.Set("id", tokenID)

				var detail nftAsset
				if err := client.get(ctx, "/nft/v2/contract", query, &detail); err != nil {
					return nil, err
				}

				name := detail.Name
				if name == "" {
					name = fmt.Sprintf("%s #%s", detail.Asset.Name, tokenID)
				}
				var sb strings.Builder
				fmt.Fprintf(&sb, "%s (token %s) on %s, contract %s\n", name, tokenID, chainName(chainID), contract)
				if detail.ImageURL != "" {
					fmt.Fprintf(&sb, "**Image:** %s\n", detail.ImageURL)
				}
				return sb.String(), nil

			default:
				return nil, fmt.Errorf("unknown operation %q", op)
			}
		},
	}
}
