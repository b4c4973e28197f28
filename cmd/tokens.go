package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flash-swap/config"
	"flash-swap/pkg/coins"
	"flash-swap/pkg/swft"
	"flash-swap/pkg/types"
	"flash-swap/pkg/wallet"
)

var (
	searchQuery  string
	showBalances bool
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List assets that can be converted to USDT",
	Long: `List the source assets supported for conversion into USDT on the
configured network.

Examples:
  flash-swap tokens
  flash-swap tokens --search USD
  flash-swap tokens --balances`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&searchQuery, "search", "", "Filter by symbol or contract address")
	tokensCmd.Flags().BoolVar(&showBalances, "balances", false, "Show account balances (requires account and RPC config)")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	client := swft.NewClient(cfg.BaseURL)
	catalog := coins.NewService(client, cfg.TargetAsset())

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported coins..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	assets, err := catalog.Load(ctx, cfg.Network)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	assets = coins.Search(assets, searchQuery)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(assets, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayAssets(cfg, assets)

	if showBalances {
		displayBalances(ctx, cfg, assets)
	}
}

func displayAssets(cfg *config.Config, assets []types.AssetRef) {
	if len(assets) == 0 {
		fmt.Println("\nNo assets found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("            ASSETS CONVERTIBLE TO %s", cfg.TargetAsset().Symbol)
	fmt.Println(strings.Repeat("=", 70))

	if mostUsed := coins.MostUsed(assets, cfg.Network); len(mostUsed) > 0 {
		color.Cyan("\nMOST USED")
		fmt.Println(strings.Repeat("-", 70))
		for _, a := range mostUsed {
			printAsset(a)
		}
	}

	color.Cyan("\nALL (%s)", strings.ToUpper(cfg.Network))
	fmt.Println(strings.Repeat("-", 70))
	for _, a := range assets {
		printAsset(a)
	}

	fmt.Printf("\nTotal: %d assets\n\n", len(assets))
}

func printAsset(a types.AssetRef) {
	address := a.Contract
	if len(address) > 40 {
		address = address[:37] + "..."
	}
	fmt.Printf("  %-10s  %2d decimals  %s\n",
		color.YellowString(a.Symbol),
		a.Decimals,
		color.HiBlackString(address))
}

func displayBalances(ctx context.Context, cfg *config.Config, assets []types.AssetRef) {
	w, err := wallet.New(cfg.EthRPCURL, cfg.Account)
	if err != nil {
		printError(err)
		return
	}

	account, ok := w.Account()
	if !ok {
		color.Yellow("\nNo account configured; set FLASH_SWAP_ACCOUNT to see balances.\n")
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Fetching balances..."
	s.Start()
	balances := coins.Balances(ctx, w, account, assets)
	s.Stop()

	color.Cyan("\nBALANCES (%s)", w.ShortAccount())
	fmt.Println(strings.Repeat("-", 70))
	for _, b := range balances {
		if b.Amount.Sign() == 0 {
			continue
		}
		fmt.Printf("  %-10s  %s\n",
			color.YellowString(b.Asset.Symbol),
			wallet.FormatUnits(b.Amount, b.Asset.Decimals))
	}
	fmt.Println()
}
