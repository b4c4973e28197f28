package engine

import (
	"context"

	"flash-swap/pkg/types"
)

// QuoteSource is the external quote collaborator. A non-success response
// code from the source must surface as an error, same as transport
// failures; the engine treats both as a fetch Failure.
type QuoteSource interface {
	GetPriceInfo(ctx context.Context, from, to types.AssetRef) (types.Quote, error)
}

// Result is the outcome of one quote fetch. It carries the trigger that
// requested it so the output amount is always computed from the amount
// active at trigger time, not whatever the user typed since.
type Result struct {
	Gen     uint64
	Trigger Trigger
	Quote   types.Quote
	Err     error
}

// Fetcher performs one asynchronous quote lookup per trigger with
// switch-latest semantics: every Fetch increments the generation counter
// and cancels the previous in-flight request, and only a result whose
// generation is still current may be applied. Completion order is
// irrelevant; a superseded request that resolves later is discarded by the
// generation check even if its cancellation raced.
//
// Fetch and Stop must be called from a single goroutine (the engine loop).
type Fetcher struct {
	source  QuoteSource
	target  types.AssetRef
	results chan Result
	gen     uint64
	cancel  context.CancelFunc
}

// NewFetcher creates a fetcher converting into the fixed target asset.
func NewFetcher(source QuoteSource, target types.AssetRef) *Fetcher {
	return &Fetcher{
		source:  source,
		target:  target,
		results: make(chan Result, 8),
	}
}

// Fetch starts a lookup for the trigger and returns its generation. The
// result is delivered on Results; delivery is abandoned when ctx ends.
func (f *Fetcher) Fetch(ctx context.Context, trig Trigger) uint64 {
	f.gen++
	gen := f.gen

	if f.cancel != nil {
		f.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	go func() {
		quote, err := f.source.GetPriceInfo(reqCtx, trig.Asset, f.target)
		if err == nil {
			quote.Generation = gen
		}
		select {
		case f.results <- Result{Gen: gen, Trigger: trig, Quote: quote, Err: err}:
		case <-ctx.Done():
		}
	}()

	return gen
}

// Results delivers fetch outcomes, current and stale alike. Callers filter
// with IsCurrent.
func (f *Fetcher) Results() <-chan Result {
	return f.results
}

// Current returns the most recent generation.
func (f *Fetcher) Current() uint64 {
	return f.gen
}

// IsCurrent reports whether a result belongs to the most recent trigger.
func (f *Fetcher) IsCurrent(r Result) bool {
	return r.Gen == f.gen
}

// Stop aborts any in-flight request.
func (f *Fetcher) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}
