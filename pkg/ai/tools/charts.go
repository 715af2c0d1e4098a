package tools

import (
	"context"
	"fmt"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
)

type lineChartResponse struct {
	Data []struct {
		Time  int64   `json:"time"`
		Value float64 `json:"value"`
	} `json:"data"`
}

type candleChartResponse struct {
	Data []struct {
		Time  int64   `json:"time"`
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	} `json:"data"`
}

var chartPeriods = map[string]bool{
	"24H": true, "1W": true, "1M": true, "1Y": true, "AllTime": true,
}

// Candle intervals accepted by the aggregated endpoint, in seconds.
var candleSeconds = map[int]bool{
	300: true, 900: true, 3600: true, 14400: true, 86400: true, 604800: true,
}

// ChartTool fetches price history via the 1inch charts API. Its result
// carries a structured chartData payload that is surfaced to the client next
// to the answer text.
func ChartTool(client *Client) ai.Tool {
	return ai.Tool{
		Name: "chart_data",
		Description: "Get price history for a token pair as chart data. Use for 'chart', " +
			"'price history' or 'how has X moved' questions. Line charts by default; " +
			"candle charts when an OHLC interval is asked for.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"baseToken": map[string]interface{}{
					"type":        "string",
					"description": "Token to chart (symbol or address).",
				},
				"quoteToken": map[string]interface{}{
					"type":        "string",
					"description": "Quote token. Defaults to USDC.",
				},
				"chartType": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"line", "candle"},
					"description": "Chart style. Defaults to line.",
				},
				"period": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"24H", "1W", "1M", "1Y", "AllTime"},
					"description": "History window for line charts. Defaults to 1M.",
				},
				"seconds": map[string]interface{}{
					"type":        "integer",
					"description": "Candle interval in seconds: 300, 900, 3600, 14400, 86400 or 604800.",
				},
				"chain": map[string]interface{}{
					"type":        "string",
					"description": "Chain name or ID. Defaults to ethereum.",
				},
			},
			"required": []string{"baseToken"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			chainID, err := resolveChain(stringArg(args, "chain"))
			if err != nil {
				return nil, err
			}
			base, err := resolveToken(chainID, stringArg(args, "baseToken"))
			if err != nil {
				return nil, err
			}
			quoteRaw := stringArg(args, "quoteToken")
			if quoteRaw == "" {
				quoteRaw = "USDC"
			}
			quote, err := resolveToken(chainID, quoteRaw)
			if err != nil {
				return nil, err
			}
			if stringArg(args, "chartType") == "candle" {
				return candleChart(ctx, client, chainID, base, quote, intArg(args, "seconds", 3600))
			}

			period := stringArg(args, "period")
			if period == "" {
				period = "1M"
			}
			if !chartPeriods[period] {
				return nil, fmt.Errorf("unsupported period %q", period)
			}

			var resp lineChartResponse
			path := fmt.Sprintf("/charts/v1.0/chart/line/%s/%s/%s/%d", base, quote, period, chainID)
			if err := client.get(ctx, path, nil, &resp); err != nil {
				return nil, err
			}
			if len(resp.Data) == 0 {
				return fmt.Sprintf("No chart data available for that pair on %s.", chainName(chainID)), nil
			}

			points := make([]map[string]interface{}, 0, len(resp.Data))
			for _, p := range resp.Data {
				points = append(points, map[string]interface{}{"time": p.Time, "value": p.Value})
			}
			first := resp.Data[0].Value
			last := resp.Data[len(resp.Data)-1].Value
			change := 0.0
			if first != 0 {
				change = (last - first) / first * 100
			}

			return map[string]interface{}{
				"message": fmt.Sprintf(
					"Price chart for the pair over %s: %d points, latest %.6f, change %+.2f%%.",
					period, len(resp.Data), last, change),
				"chartData": map[string]interface{}{
					"type": "line",
					"data": points,
					"metadata": map[string]interface{}{
						"baseToken":  base,
						"quoteToken": quote,
						"period":     period,
						"chainId":    chainID,
					},
				},
			}, nil
		},
	}
}

func candleChart(ctx context.Context, client *Client, chainID int64, base, quote string, seconds int) (interface{}, error) {
	if !candleSeconds[seconds] {
		return nil, fmt.Errorf("unsupported candle interval %d seconds (use 300, 900, 3600, 14400, 86400 or 604800)", seconds)
	}

	var resp candleChartResponse
	path := fmt.Sprintf("/charts/v1.0/chart/aggregated/candle/%s/%s/%d/%d", base, quote, seconds, chainID)
	if err := client.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return fmt.Sprintf("No candle data available for that pair on %s.", chainName(chainID)), nil
	}

	points := make([]map[string]interface{}, 0, len(resp.Data))
	for _, c := range resp.Data {
		points = append(points, map[string]interface{}{
			"time": c.Time, "open": c.Open, "high": c.High, "low": c.Low, "close": c.Close,
		})
	}
	last := resp.Data[len(resp.Data)-1]

	return map[string]interface{}{
		"message": fmt.Sprintf(
			"Candle chart with %d candles at %d-second intervals, latest close %.6f.",
			len(resp.Data), seconds, last.Close),
		"chartData": map[string]interface{}{
			"type": "candle",
			"data": points,
			"metadata": map[string]interface{}{
				"baseToken":  base,
				"quoteToken": quote,
				"seconds":    seconds,
				"chainId":    chainID,
			},
		},
	}, nil
}
