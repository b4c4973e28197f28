package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var quotePattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)$`)

// ParseQuoteCommand parses a quote request of the form "<amount> <token>"
// Examples:
//   - "10 ETH"
//   - "0.5 WBTC"
func ParseQuoteCommand(command string) (amount, symbol string, err error) {
	command = strings.TrimSpace(strings.ToUpper(command))

	matches := quotePattern.FindStringSubmatch(command)
	if matches == nil {
		return "", "", fmt.Errorf("invalid command format. Expected: '<amount> <token>' (e.g., '10 ETH')")
	}

	return matches[1], matches[2], nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Handle common aliases
	aliases := map[string]string{
		"WETH": "ETH",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
