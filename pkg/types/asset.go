package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AssetRef identifies a tradable asset. Two refs are the same asset when
// symbol, network and contract all match; decimals are display metadata.
type AssetRef struct {
	Symbol   string
	Network  string
	Contract string
	Decimals int
}

// Equal reports whether two refs identify the same asset.
func (a AssetRef) Equal(b AssetRef) bool {
	return a.Symbol == b.Symbol && a.Network == b.Network && a.Contract == b.Contract
}

func (a AssetRef) String() string {
	if a.Contract != "" {
		return fmt.Sprintf("%s (%s, %s)", a.Symbol, a.Network, a.Contract)
	}
	return fmt.Sprintf("%s (%s)", a.Symbol, a.Network)
}

// Quote holds the conversion rate data returned by the quote source for one
// asset pair. Immutable once produced; Generation identifies the trigger
// that requested it.
type Quote struct {
	Rate           float64
	DepositFeeRate float64
	MinerFee       float64
	MinAmount      float64
	MaxAmount      float64
	Generation     uint64
	AsOf           time.Time
}

// CoinInfo is the raw coin record returned by the SWFT coin list endpoint.
// The "contact" key is how the upstream API spells the contract address.
type CoinInfo struct {
	CoinCode      string `json:"coinCode"`
	CoinDecimal   int    `json:"coinDecimal"`
	MainNetwork   string `json:"mainNetwork"`
	Contract      string `json:"contact"`
	NoSupportCoin string `json:"noSupportCoin"`
}

// Asset converts a raw coin record into an AssetRef. It returns an error
// for records missing the fields the engine depends on.
func (c CoinInfo) Asset() (AssetRef, error) {
	if strings.TrimSpace(c.CoinCode) == "" {
		return AssetRef{}, fmt.Errorf("coin record missing coin code")
	}
	if strings.TrimSpace(c.MainNetwork) == "" {
		return AssetRef{}, fmt.Errorf("coin %s missing network", c.CoinCode)
	}
	return AssetRef{
		Symbol:   c.CoinCode,
		Network:  c.MainNetwork,
		Contract: c.Contract,
		Decimals: c.CoinDecimal,
	}, nil
}

// Supports reports whether the coin can be swapped into the given symbol.
// NoSupportCoin is a comma separated list of unsupported receive coins.
func (c CoinInfo) Supports(symbol string) bool {
	for _, code := range strings.Split(c.NoSupportCoin, ",") {
		if strings.EqualFold(strings.TrimSpace(code), symbol) {
			return false
		}
	}
	return true
}

// ParseAmount converts a user-entered amount into a number. Empty and
// malformed input parse to 0; the engine's validation decides what to do
// with non-positive values.
func ParseAmount(input string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return 0
	}
	return v
}
