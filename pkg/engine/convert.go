package engine

import "flash-swap/pkg/types"

// ComputeOutput maps a quote and a source amount to the receive amount:
// the instant rate is applied to the amount, the deposit-side fee rate is
// taken off, and the receive-side miner fee is subtracted. Never negative.
//
// Pure function; callers must not invoke it without a quote.
func ComputeOutput(quote types.Quote, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	out := amount*quote.Rate*(1-quote.DepositFeeRate) - quote.MinerFee
	if out < 0 {
		return 0
	}
	return out
}
