package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type domainLookupResponse struct {
	Result []struct {
		Protocol string `json:"protocol"`
		Domain   string `json:"domain"`
		Address  string `json:"address"`
	} `json:"result"`
}

type domainReverseResponse struct {
	Result struct {
		Domain string `json:"domain"`
	} `json:"result"`
}

type domainAvatarResponse struct {
	Result string `json:"result"`
}

// DomainsTool resolves ENS-style names via the 1inch domains API.
func DomainsTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "domain_operations",
		Description: "Resolve blockchain domain names (ENS and similar). Operations: lookup " +
			"(name to address), reverse (address to name, including the avatar when one is set).",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"operation": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"lookup", "reverse"},
					"description": "lookup resolves a name, reverse resolves an address.",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Domain name, e.g. vitalik.eth (for lookup).",
				},
				"address": map[string]interface{}{
					"type":        "string",
					"description": "Wallet address (for reverse).",
				},
			},
			"required": []string{"operation"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			switch op := stringArg(args, "operation"); op {
			case "lookup":
				name := strings.ToLower(stringArg(args, "name"))
				if name == "" {
					return nil, fmt.Errorf("name is required for lookup")
				}
				query := url.Values{}
				query.Set("name", name)
				var resp domainLookupResponse
				if err := client.get(ctx, "/domains/v2.0/lookup", query, &resp); err != nil {
					return nil, err
				}
				if len(resp.Result) == 0 {
					return fmt.Sprintf("No address found for %s.", name), nil
				}
				var sb strings.Builder
				fmt.Fprintf(&sb, "%s resolves to:\n", name)
				for _, r := range resp.Result {
					fmt.Fprintf(&sb, "- %s (%s)\n", r.Address, r.Protocol)
				}
				return sb.String(), nil

			case "reverse":
				address := stringArg(args, "address")
				if !isAddress(address) {
					return nil, fmt.Errorf("invalid address %q", address)
				}
				query := url.Values{}
				query.Set("address", address)
				var resp domainReverseResponse
				if err := client.get(ctx, "/domains/v2.0/reverse-lookup", query, &resp); err != nil {
					return nil, err
				}
				if resp.Result.Domain == "" {
					return fmt.Sprintf("No domain name is set for %s.", address), nil
				}

				var sb strings.Builder
				fmt.Fprintf(&sb, "%s belongs to %s.\n", resp.Result.Domain, address)

				// Avatar lookup is best-effort; the name resolution stands
				// on its own.
				var avatar domainAvatarResponse
				if err := client.get(ctx, "/domains/v2.0/get-avatar", query, &avatar); err == nil && avatar.Result != "" {
					fmt.Fprintf(&sb, "**Avatar:** %s\n", avatar.Result)
				}
				return sb.String(), nil

			default:
				return nil, fmt.Errorf("unknown operation %q", op)
			}
		},
	}
}
