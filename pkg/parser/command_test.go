package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuoteCommand(t *testing.T) {
	amount, symbol, err := ParseQuoteCommand("10 ETH")
	require.NoError(t, err)
	assert.Equal(t, "10", amount)
	assert.Equal(t, "ETH", symbol)

	amount, symbol, err = ParseQuoteCommand("  0.5 wbtc ")
	require.NoError(t, err)
	assert.Equal(t, "0.5", amount)
	assert.Equal(t, "WBTC", symbol)
}

func TestParseQuoteCommand_Invalid(t *testing.T) {
	for _, input := range []string{"", "ETH", "ten ETH", "10", "10 ETH extra", "-5 ETH"} {
		_, _, err := ParseQuoteCommand(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestNormalizeTokenSymbol(t *testing.T) {
	assert.Equal(t, "ETH", NormalizeTokenSymbol("weth"))
	assert.Equal(t, "ETH", NormalizeTokenSymbol(" WETH "))
	assert.Equal(t, "USDC", NormalizeTokenSymbol("usdc"))
}
