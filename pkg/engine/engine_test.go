package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flash-swap/pkg/types"
)

type stubWallet struct {
	account   string
	validAddr string
}

func (w stubWallet) IsAddressValid(addr string) bool {
	return addr != "" && addr == w.validAddr
}

func (w stubWallet) Account() (string, bool) {
	if w.account == "" {
		return "", false
	}
	return w.account, true
}

func testOptions() Options {
	return Options{
		Target:          usdtAsset,
		InitialAsset:    ethAsset,
		InitialAmount:   "",
		DebounceWindow:  10 * time.Millisecond,
		RefreshInterval: time.Hour,
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 5*time.Millisecond, msg)
}

func TestEngine_StartupTriggerFetchesOnce(t *testing.T) {
	var calls int32
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		atomic.AddInt32(&calls, 1)
		return types.Quote{Rate: 2}, nil
	})

	eng := New(src, stubWallet{}, testOptions())
	require.NoError(t, eng.Start())
	defer eng.Close()

	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, "startup trigger should fetch")
	waitFor(t, func() bool { return eng.Snapshot().HasQuote }, "quote should be applied")

	snap := eng.Snapshot()
	assert.Equal(t, PhaseFresh, snap.Phase)
	assert.Zero(t, snap.OutputAmount, "empty startup amount converts to zero")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no further fetches without input")
}

func TestEngine_AmountEntryIssuesExactlyOneFetch(t *testing.T) {
	var calls int32
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		atomic.AddInt32(&calls, 1)
		return types.Quote{Rate: 2}, nil
	})

	eng := New(src, stubWallet{}, testOptions())
	require.NoError(t, eng.Start())
	defer eng.Close()

	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, "startup fetch")

	eng.SetAmount("10")
	waitFor(t, func() bool { return eng.Snapshot().OutputAmount == 20 }, "output derived from new amount")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "exactly one fetch per settled amount")
}

func TestEngine_TypingBurstCoalescesToOneFetch(t *testing.T) {
	var calls int32
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		atomic.AddInt32(&calls, 1)
		return types.Quote{Rate: 2}, nil
	})

	opts := testOptions()
	opts.DebounceWindow = 200 * time.Millisecond
	eng := New(src, stubWallet{}, opts)
	require.NoError(t, eng.Start())
	defer eng.Close()

	// The startup trigger and the burst share one debounce window, so the
	// whole sequence settles into a single fetch using the last value.
	eng.SetAmount("1")
	eng.SetAmount("12")
	eng.SetAmount("125")

	waitFor(t, func() bool { return eng.Snapshot().OutputAmount == 250 }, "last value of the burst wins")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEngine_StaleResultNeverOverwritesNewerQuote(t *testing.T) {
	gate1 := make(chan struct{})
	gate2 := make(chan struct{})

	var calls int32
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			<-gate1
			return types.Quote{Rate: 1}, nil
		default:
			<-gate2
			return types.Quote{Rate: 2}, nil
		}
	})

	eng := New(src, stubWallet{}, testOptions())
	require.NoError(t, eng.Start())
	defer eng.Close()

	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, "generation 1 in flight")

	// A newer trigger supersedes the slow generation-1 fetch and its
	// result lands first.
	eng.SetAmount("10")
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, "generation 2 in flight")
	close(gate2)

	waitFor(t, func() bool {
		snap := eng.Snapshot()
		return snap.HasQuote && snap.Quote.Rate == 2
	}, "generation 2 quote applied")

	// The superseded fetch resolves afterwards; it must be dropped.
	close(gate1)
	time.Sleep(100 * time.Millisecond)

	snap := eng.Snapshot()
	assert.Equal(t, float64(2), snap.Quote.Rate, "stale completion must not revert the quote")
	assert.Equal(t, float64(20), snap.OutputAmount)
	assert.Equal(t, PhaseFresh, snap.Phase)
	assert.False(t, snap.QuoteLoadError)
}

func TestEngine_PeriodicTickRefetchesLastPair(t *testing.T) {
	var calls int32
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		atomic.AddInt32(&calls, 1)
		return types.Quote{Rate: 2}, nil
	})

	opts := testOptions()
	opts.InitialAmount = "5"
	opts.RefreshInterval = 80 * time.Millisecond
	eng := New(src, stubWallet{}, opts)
	require.NoError(t, eng.Start())
	defer eng.Close()

	waitFor(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, "ticks keep refetching with no input")

	snap := eng.Snapshot()
	assert.Equal(t, "5", snap.LastAmount, "the last known pair is reused")
	assert.Equal(t, float64(10), snap.OutputAmount)
}

func TestEngine_FailureRetainsLastKnownQuote(t *testing.T) {
	var calls int32
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			return types.Quote{Rate: 3}, nil
		case 2:
			return types.Quote{}, errors.New("API returned code 900")
		default:
			return types.Quote{Rate: 4}, nil
		}
	})

	opts := testOptions()
	opts.InitialAmount = "5"
	eng := New(src, stubWallet{}, opts)
	require.NoError(t, eng.Start())
	defer eng.Close()

	waitFor(t, func() bool { return eng.Snapshot().OutputAmount == 15 }, "first quote applied")

	eng.SetAmount("6")
	waitFor(t, func() bool { return eng.Snapshot().QuoteLoadError }, "failure flagged")

	snap := eng.Snapshot()
	assert.Equal(t, float64(3), snap.Quote.Rate, "last-known quote retained on failure")
	assert.Equal(t, PhaseStale, snap.Phase)

	eng.SetAmount("7")
	waitFor(t, func() bool {
		s := eng.Snapshot()
		return !s.QuoteLoadError && s.Quote.Rate == 4
	}, "next success clears the error and refreshes the quote")
	assert.Equal(t, float64(28), eng.Snapshot().OutputAmount)
}

func TestEngine_SubmitReportsAllFieldErrors(t *testing.T) {
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		return types.Quote{}, errors.New("API returned code 900")
	})

	opts := testOptions()
	opts.InitialAmount = "0"
	eng := New(src, stubWallet{}, opts)
	require.NoError(t, eng.Start())
	defer eng.Close()

	waitFor(t, func() bool { return eng.Snapshot().QuoteLoadError }, "no quote obtainable")

	res, err := eng.Submit()
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.True(t, res.Errors[ErrFromAmount], "zero amount")
	assert.True(t, res.Errors[ErrToAddress], "empty address")
	assert.True(t, res.Errors[ErrPrice], "no quote available")
	assert.True(t, res.NotConnected)
}

func TestEngine_SubmitSucceedsWhenAllChecksPass(t *testing.T) {
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		return types.Quote{Rate: 2}, nil
	})

	opts := testOptions()
	opts.InitialAmount = "10"
	w := stubWallet{account: "0xacc0", validAddr: "0xdest"}
	eng := New(src, w, opts)
	require.NoError(t, eng.Start())
	defer eng.Close()

	eng.SetAddress("0xdest")
	waitFor(t, func() bool { return eng.Snapshot().HasQuote }, "quote available")

	res, err := eng.Submit()
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.Errors)
	assert.Equal(t, float64(10), res.Amount)
	assert.Equal(t, float64(20), res.OutputAmount)
	assert.Equal(t, "0xdest", res.ToAddress)
}

func TestEngine_AddressFixClearsItsFlag(t *testing.T) {
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		return types.Quote{Rate: 2}, nil
	})

	opts := testOptions()
	opts.InitialAmount = "10"
	eng := New(src, stubWallet{account: "0xacc0", validAddr: "0xdest"}, opts)
	require.NoError(t, eng.Start())
	defer eng.Close()

	waitFor(t, func() bool { return eng.Snapshot().HasQuote }, "quote available")

	res, err := eng.Submit()
	require.NoError(t, err)
	require.True(t, res.Errors[ErrToAddress])

	eng.SetAddress("0xdest")
	waitFor(t, func() bool { return !eng.Snapshot().Errors[ErrToAddress] }, "valid address clears its flag")
}

func TestEngine_SubmitAfterCloseFails(t *testing.T) {
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		return types.Quote{Rate: 2}, nil
	})

	eng := New(src, stubWallet{}, testOptions())
	require.NoError(t, eng.Start())
	eng.Close()

	_, err := eng.Submit()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	src := sourceFunc(func(ctx context.Context, from, to types.AssetRef) (types.Quote, error) {
		return types.Quote{Rate: 2}, nil
	})

	eng := New(src, stubWallet{}, testOptions())
	require.NoError(t, eng.Start())
	eng.Close()
	eng.Close()
}
