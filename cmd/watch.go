package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flash-swap/config"
	"flash-swap/pkg/coins"
	"flash-swap/pkg/engine"
	"flash-swap/pkg/parser"
	"flash-swap/pkg/swft"
	"flash-swap/pkg/types"
	"flash-swap/pkg/wallet"
)

var watchCmd = &cobra.Command{
	Use:   "watch <amount> <token>",
	Short: "Watch a continuously refreshing conversion quote",
	Long: `Watch the USDT conversion quote for an amount of a source asset.
The quote refreshes periodically until interrupted with Ctrl+C.

Examples:
  flash-swap watch 10 ETH
  flash-swap watch 250 USDC`,
	Args: cobra.MinimumNArgs(1),
	Run:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	amount, symbol, err := parser.ParseQuoteCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	client := swft.NewClient(cfg.BaseURL)

	asset, err := resolveSourceAsset(client, cfg, symbol)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	w, err := wallet.New(cfg.EthRPCURL, cfg.Account)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	eng := engine.New(client, w, engine.Options{
		Target:          cfg.TargetAsset(),
		InitialAsset:    asset,
		InitialAmount:   amount,
		DebounceWindow:  cfg.DebounceWindow,
		RefreshInterval: cfg.RefreshInterval,
	})
	if err := eng.Start(); err != nil {
		printError(err)
		os.Exit(1)
	}
	defer eng.Close()

	fmt.Printf("\nWatching %s %s -> %s (refresh every %s, Ctrl+C to stop)\n\n",
		amount, color.YellowString(asset.Symbol), color.YellowString(cfg.TargetAsset().Symbol), cfg.RefreshInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastGen uint64
	var lastErr bool
	for {
		select {
		case <-sig:
			fmt.Println("\nStopped.")
			return
		case <-ticker.C:
			snap := eng.Snapshot()
			if snap.QuoteLoadError && !lastErr {
				color.Red("  %s  quote refresh failed, showing last known rate", time.Now().Format("15:04:05"))
			}
			lastErr = snap.QuoteLoadError
			if !snap.HasQuote || snap.Quote.Generation == lastGen {
				continue
			}
			lastGen = snap.Quote.Generation
			fmt.Printf("  %s  1 %s = %s %s    %s %s -> %s %s\n",
				time.Now().Format("15:04:05"),
				snap.SelectedAsset.Symbol,
				color.GreenString("%.6f", snap.Quote.Rate),
				cfg.TargetAsset().Symbol,
				snap.LastAmount,
				snap.SelectedAsset.Symbol,
				color.GreenString("%.6f", snap.OutputAmount),
				cfg.TargetAsset().Symbol)
		}
	}
}

// resolveSourceAsset finds the catalog entry for a token symbol.
func resolveSourceAsset(client *swft.Client, cfg *config.Config, symbol string) (types.AssetRef, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	catalog := coins.NewService(client, cfg.TargetAsset())
	assets, err := catalog.Load(ctx, cfg.Network)
	if err != nil {
		return types.AssetRef{}, err
	}

	symbol = parser.NormalizeTokenSymbol(symbol)
	for _, a := range assets {
		if strings.EqualFold(a.Symbol, symbol) {
			return a, nil
		}
	}
	return types.AssetRef{}, fmt.Errorf("token '%s' not supported on network '%s'", symbol, cfg.Network)
}
