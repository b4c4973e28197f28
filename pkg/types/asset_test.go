package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetRefEqual(t *testing.T) {
	a := AssetRef{Symbol: "USDC", Network: "ETH", Contract: "0xa0b8", Decimals: 6}
	b := a
	b.Decimals = 18
	assert.True(t, a.Equal(b), "decimals are display metadata")

	b = a
	b.Contract = "0xother"
	assert.False(t, a.Equal(b))

	b = a
	b.Network = "BSC"
	assert.False(t, a.Equal(b))
}

func TestCoinInfoAsset(t *testing.T) {
	coin := CoinInfo{CoinCode: "USDC", CoinDecimal: 6, MainNetwork: "ETH", Contract: "0xa0b8"}

	asset, err := coin.Asset()
	require.NoError(t, err)
	assert.Equal(t, "USDC", asset.Symbol)
	assert.Equal(t, "ETH", asset.Network)
	assert.Equal(t, "0xa0b8", asset.Contract)
	assert.Equal(t, 6, asset.Decimals)

	_, err = CoinInfo{MainNetwork: "ETH"}.Asset()
	assert.Error(t, err)

	_, err = CoinInfo{CoinCode: "USDC"}.Asset()
	assert.Error(t, err)
}

func TestCoinInfoSupports(t *testing.T) {
	coin := CoinInfo{CoinCode: "XMR", NoSupportCoin: "USDT, usdc ,DAI"}

	assert.False(t, coin.Supports("USDT"))
	assert.False(t, coin.Supports("USDC"), "comparison ignores case and spacing")
	assert.True(t, coin.Supports("ETH"))
	assert.True(t, CoinInfo{CoinCode: "ETH"}.Supports("USDT"))
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 10.5, ParseAmount("10.5"))
	assert.Equal(t, 10.5, ParseAmount("  10.5 "))
	assert.Equal(t, -3.0, ParseAmount("-3"))
	assert.Zero(t, ParseAmount(""))
	assert.Zero(t, ParseAmount("abc"))
	assert.Zero(t, ParseAmount("1,5"))
}
