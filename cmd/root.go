package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flash-swap",
	Short: "A CLI for instant crypto-to-USDT conversion quotes via the SWFT aggregator",
	Long: `flash-swap converts a source crypto asset into USDT using the SWFT
aggregator. Quotes refresh automatically while you watch, and swaps are
validated field by field before an order is placed.

Examples:
  flash-swap tokens
  flash-swap watch 10 ETH
  flash-swap swap 10 ETH --to-address 0x1234... --yes`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
