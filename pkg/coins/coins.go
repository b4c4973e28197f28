package coins

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"flash-swap/pkg/types"
)

// CoinLister retrieves the raw supported coin list.
type CoinLister interface {
	GetCoinList(ctx context.Context) ([]types.CoinInfo, error)
}

// BalanceLookup answers on-chain balance queries for an account.
type BalanceLookup interface {
	GetBalance(ctx context.Context, addr string) (*big.Int, error)
	GetTokenBalance(ctx context.Context, addr, contract string) (*big.Int, error)
}

// mostUsedByNetwork orders the shortlist shown before any search input.
var mostUsedByNetwork = map[string][]string{
	"ETH": {"ETH", "USDT", "USDC", "DAI", "WBTC"},
}

// nativeByNetwork names the coin whose balance is the account's native one.
var nativeByNetwork = map[string]string{
	"ETH": "ETH",
}

// Service builds the selectable source-asset catalog for a fixed target
// asset: coins that cannot convert into the target are dropped at the
// boundary along with records from other networks.
type Service struct {
	lister CoinLister
	target types.AssetRef
}

// NewService creates a catalog service for the given target asset.
func NewService(lister CoinLister, target types.AssetRef) *Service {
	return &Service{lister: lister, target: target}
}

// Load fetches and filters the coin list for a network.
func (s *Service) Load(ctx context.Context, network string) ([]types.AssetRef, error) {
	coins, err := s.lister.GetCoinList(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load coin list: %w", err)
	}

	assets := make([]types.AssetRef, 0, len(coins))
	for _, coin := range coins {
		if !coin.Supports(s.target.Symbol) {
			continue
		}
		if !strings.EqualFold(coin.MainNetwork, network) {
			continue
		}
		asset, err := coin.Asset()
		if err != nil {
			// Malformed upstream records are skipped, not fatal.
			continue
		}
		assets = append(assets, asset)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("no supported coins on network %s", network)
	}
	return assets, nil
}

// MostUsed returns the network's shortlist in its preset order, limited to
// assets actually present in the catalog.
func MostUsed(assets []types.AssetRef, network string) []types.AssetRef {
	order := mostUsedByNetwork[strings.ToUpper(network)]
	var out []types.AssetRef
	for _, symbol := range order {
		for _, a := range assets {
			if strings.EqualFold(a.Symbol, symbol) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Search filters the catalog by symbol substring or exact contract match.
// Empty input returns the catalog unchanged.
func Search(assets []types.AssetRef, query string) []types.AssetRef {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return assets
	}
	var out []types.AssetRef
	for _, a := range assets {
		if strings.Contains(strings.ToUpper(a.Symbol), q) {
			out = append(out, a)
			continue
		}
		if a.Contract != "" && strings.ToUpper(a.Contract) == q {
			out = append(out, a)
		}
	}
	return out
}

// Balance pairs an asset with the account's holdings of it.
type Balance struct {
	Asset  types.AssetRef
	Amount *big.Int
}

// Balances looks up the account's balance for each asset and returns them
// richest first, ties broken by symbol. Lookup failures leave a zero
// balance rather than failing the whole list.
func Balances(ctx context.Context, lookup BalanceLookup, account string, assets []types.AssetRef) []Balance {
	out := make([]Balance, 0, len(assets))
	for _, asset := range assets {
		b := Balance{Asset: asset, Amount: big.NewInt(0)}

		native := strings.EqualFold(nativeByNetwork[strings.ToUpper(asset.Network)], asset.Symbol)
		var amount *big.Int
		var err error
		switch {
		case native:
			amount, err = lookup.GetBalance(ctx, account)
		case asset.Contract != "":
			amount, err = lookup.GetTokenBalance(ctx, account, asset.Contract)
		}
		if err == nil && amount != nil {
			b.Amount = amount
		}
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Asset.Symbol < out[j].Asset.Symbol
	})
	return out
}
