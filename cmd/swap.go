package cmd

import (
	"bufio"
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
	"flash-swap/pkg/engine"
	"flash-swap/pkg/parser"
	"flash-swap/pkg/swft"
	"flash-swap/pkg/wallet"
)

var (
	toAddress string
	refundTo  string
	noConfirm bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <token>",
	Short: "Convert an asset to USDT",
	Long: `Swap a source asset into USDT via the SWFT aggregator.

IMPORTANT:
  - You MUST specify --to-address (where you'll receive USDT)
  - The address must be a valid Ethereum address

Examples:
  flash-swap swap 10 ETH --to-address 0x1234...
  flash-swap swap 250 USDC --to-address 0x1234... --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&toAddress, "to-address", "", "Destination address (REQUIRED - where you'll receive USDT)")
	swapCmd.Flags().StringVar(&refundTo, "refund-to", "", "Refund address on the source chain (optional)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	amount, symbol, err := parser.ParseQuoteCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	eng.SetAddress(toAddress)

	// Wait for the startup trigger's quote before validating.
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}
	snap, err := waitForQuote(eng, 30*time.Second)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if verbose {
		fmt.Printf("\nQuote received:\n")
		quoteJSON, _ := json.MarshalIndent(snap.Quote, "", "  ")
		fmt.Println(string(quoteJSON))
	}

	result, err := eng.Submit()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !result.OK {
		reportSubmitErrors(result)
		os.Exit(1)
	}

	if result.Amount < snap.Quote.MinAmount || (snap.Quote.MaxAmount > 0 && result.Amount > snap.Quote.MaxAmount) {
		printError(fmt.Errorf("amount %s %s is outside the allowed range [%g, %g]",
			amount, asset.Symbol, snap.Quote.MinAmount, snap.Quote.MaxAmount))
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"source_amount": amount,
			"source_token":  asset.Symbol,
			"dest_amount":   result.OutputAmount,
			"dest_token":    cfg.TargetAsset().Symbol,
			"rate":          snap.Quote.Rate,
			"status":        "quote_validated",
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayQuote(cfg, snap, amount, asset.Symbol)
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	order, err := client.CreateOrder(ctx, swft.OrderRequest{
		From:            asset,
		To:              cfg.TargetAsset(),
		Amount:          result.Amount,
		DestinationAddr: result.ToAddress,
		RefundAddr:      refundTo,
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	displayOrder(order, amount, asset.Symbol)
}

// waitForQuote polls the engine until a quote is available or the fetch
// keeps failing past the deadline.
func waitForQuote(eng *engine.Engine, timeout time.Duration) (engine.Snapshot, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		snap := eng.Snapshot()
		if snap.HasQuote {
			return snap, nil
		}
		if snap.QuoteLoadError {
			return engine.Snapshot{}, fmt.Errorf("no quote available for the selected pair")
		}
		time.Sleep(50 * time.Millisecond)
	}
	return engine.Snapshot{}, fmt.Errorf("timed out waiting for a quote")
}

func reportSubmitErrors(result engine.SubmitResult) {
	fmt.Println()
	if result.Errors[engine.ErrFromAmount] {
		color.Red("  amount must be greater than 0")
	}
	if result.Errors[engine.ErrToAddress] {
		color.Red("  destination address is missing or invalid")
	}
	if result.Errors[engine.ErrPrice] {
		color.Red("  no quote available yet, try again")
	}
	if result.NotConnected {
		color.Red("  no account connected; set FLASH_SWAP_ACCOUNT")
	}
	fmt.Println()
}

func displayQuote(cfg *config.Config, snap engine.Snapshot, amount, symbol string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:      %s %s\n", amount, color.YellowString(symbol))
	fmt.Printf("  To:        ~%.6f %s\n", snap.OutputAmount, color.YellowString(cfg.TargetAsset().Symbol))
	fmt.Printf("  Rate:      1 %s = %.6f %s\n", symbol, snap.Quote.Rate, cfg.TargetAsset().Symbol)
	fmt.Printf("  Fee rate:  %.4f%%\n", snap.Quote.DepositFeeRate*100)
	fmt.Printf("  Miner fee: %.6f %s\n", snap.Quote.MinerFee, cfg.TargetAsset().Symbol)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayOrder(order *swft.Order, amount, symbol string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Yellow("                 DEPOSIT INSTRUCTIONS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\nOrder ID: %s\n", color.CyanString(order.OrderID))
	fmt.Printf("\nTo complete the swap, send %s %s to:\n\n", amount, symbol)
	color.Cyan("  %s\n", order.PlatformAddr)
	fmt.Printf("\nExpected output: %s USDT\n", order.ReceiveCoinAmt)
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
