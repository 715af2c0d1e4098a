// Package tools implements the 1inch-backed tool adapters exposed to the AI
// orchestration loop. Every adapter validates its arguments, calls one 1inch
// endpoint and formats the result as text the model can reason over; errors
// come back as Go errors and are converted to result text by the registry.
package tools

import (
	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

// All returns the full tool set backed by the given client, in the order
// they are presented to the model.
func All(client *Client) []ai.Tool {
	return []ai.Tool{
		BalancesTool(client),
		PricesTool(client),
		GasTool(client),
		TokenInfoTool(client),
		SwapQuoteTool(client),
		ChartTool(client),
		NFTTool(client),
		HistoryTool(client),
		DomainsTool(client),
		PortfolioTool(client),
	}
}
