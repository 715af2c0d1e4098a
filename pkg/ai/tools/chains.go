package tools

import (
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strings"
)

// supportedChains maps the chain names accepted in tool arguments to 1inch
// chain IDs.
var supportedChains = map[string]int64{
	"ethereum":  1,
	"optimism":  10,
	"bsc":       56,
	"gnosis":    100,
	"polygon":   137,
	"fantom":    250,
	"zksync":    324,
	"base":      8453,
	"arbitrum":  42161,
	"avalanche": 43114,
	"linea":     59144,
}

var chainNames = func() map[int64]string {
	m := make(map[int64]string, len(supportedChains))
	for name, id := range supportedChains {
		m[id] = name
	}
	return m
}()

// nativeToken is the pseudo-address 1inch uses for a chain's gas token.
const nativeToken = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// commonTokens resolves well-known symbols to mainnet addresses so users can
// say "USDC" instead of pasting an address. Chain-specific deployments are
// resolved by the token-info tool when needed.
var commonTokens = map[int64]map[string]string{
	1: {
		"ETH":  nativeToken,
		"WETH": "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		"USDC": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		"USDT": "0xdac17f958d2ee523a2206206994597c13d831ec7",
		"DAI":  "0x6b175474e89094c44da98b954eedeac495271d0f",
		"WBTC": "0x2260fac5e5542a773aa44fbcfedf7c193bc2c599",
		"1INCH": "0x111111111117dc0aa78b770fa6a738034120c302",
	},
	137: {
		"MATIC": nativeToken,
		"USDC":  "0x3c499c542cef5e3811e1192ce70d8cc03d5c3359",
		"USDT":  "0xc2132d05d31c914a87c6611c10748aeb04b58e8f",
		"WETH":  "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619",
	},
	8453: {
		"ETH":  nativeToken,
		"USDC": "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913",
		"WETH": "0x4200000000000000000000000000000000000006",
	},
	42161: {
		"ETH":  nativeToken,
		"USDC": "0xaf88d065e77c8cc2239327c5edb3a432268e5831",
		"USDT": "0xfd086bc7cd5c481dcc9c85ebe478a1c0b69fcbb9",
		"WETH": "0x82af49447d8a07e3bd95bd0d56f35241523fbab1",
	},
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func isAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// resolveChain turns a chain name or numeric ID string into a chain ID.
func resolveChain(raw string) (int64, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return 1, nil
	}
	if id, ok := supportedChains[name]; ok {
		return id, nil
	}
	var id int64
	if _, err := fmt.Sscanf(name, "%d", &id); err == nil {
		if _, ok := chainNames[id]; ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unsupported chain %q, supported: %s", raw, strings.Join(chainNameList(), ", "))
}

// resolveToken turns a symbol or address into a token address for the chain.
func resolveToken(chainID int64, raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", fmt.Errorf("token is required")
	}
	if isAddress(token) {
		return strings.ToLower(token), nil
	}
	if byChain, ok := commonTokens[chainID]; ok {
		if addr, ok := byChain[strings.ToUpper(token)]; ok {
			return addr, nil
		}
	}
	return "", fmt.Errorf("unknown token %q on %s, pass the contract address instead", raw, chainName(chainID))
}

func chainName(id int64) string {
	if name, ok := chainNames[id]; ok {
		return name
	}
	return fmt.Sprintf("chain %d", id)
}

func chainNameList() []string {
	names := make([]string, 0, len(supportedChains))
	for name := range supportedChains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatUnits renders a raw integer token amount with the given decimals,
// keeping up to 6 fractional digits.
func formatUnits(raw string, decimals int) string {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return raw
	}
	if decimals <= 0 {
		return value.String()
	}
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(value, divisor, new(big.Int))

	fracStr := frac.Abs(frac).String()
	for len(fracStr) < decimals {
		fracStr = "0" + fracStr
	}
	if len(fracStr) > 6 {
		fracStr = fracStr[:6]
	}
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		return whole.String()
	}
	return whole.String() + "." + fracStr
}

// stringArg pulls a string argument, tolerating absent keys.
func stringArg(args map[string]interface{}, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intArg pulls a numeric argument; JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string, fallback int) int {
	if args == nil {
		return fallback
	}
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

// stringSliceArg pulls a list-of-strings argument.
func stringSliceArg(args map[string]interface{}, key string) []string {
	if args == nil {
		return nil
	}
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
