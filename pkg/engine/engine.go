package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"flash-swap/pkg/types"
)

const (
	DefaultDebounceWindow  = 50 * time.Millisecond
	DefaultRefreshInterval = 10 * time.Second
)

// ErrClosed is returned when an operation reaches an engine whose session
// has already been torn down.
var ErrClosed = errors.New("engine closed")

// Wallet is the wallet collaborator surface the engine needs: a pure
// synchronous address check and the connected account, which may be absent.
type Wallet interface {
	IsAddressValid(addr string) bool
	Account() (string, bool)
}

// Phase describes where the engine is in its fetch cycle.
type Phase int

const (
	// PhaseAwaitingQuote means a trigger fired and the fetch is in flight.
	PhaseAwaitingQuote Phase = iota
	// PhaseFresh means the latest fetch succeeded.
	PhaseFresh
	// PhaseStale means the latest fetch failed; the last-known quote is
	// still displayed with the error flag raised.
	PhaseStale
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingQuote:
		return "awaiting-quote"
	case PhaseFresh:
		return "fresh"
	case PhaseStale:
		return "stale"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Options configures a quote refresh session.
type Options struct {
	Target          types.AssetRef
	InitialAsset    types.AssetRef
	InitialAmount   string
	DebounceWindow  time.Duration
	RefreshInterval time.Duration
}

// Snapshot is a read-only copy of the engine state for the presentation
// layer.
type Snapshot struct {
	SelectedAsset  types.AssetRef
	LastAmount     string
	ToAddress      string
	Quote          types.Quote
	HasQuote       bool
	OutputAmount   float64
	QuoteLoadError bool
	Errors         map[string]bool
	Phase          Phase
}

// SubmitResult reports the outcome of a submit attempt. Errors holds the
// full flag set: all field checks are evaluated independently so the
// caller can report every problem at once.
type SubmitResult struct {
	OK           bool
	NotConnected bool
	Errors       map[string]bool
	Quote        types.Quote
	Amount       float64
	OutputAmount float64
	ToAddress    string
}

type eventKind int

const (
	evSelectAsset eventKind = iota
	evSetAmount
	evSetAddress
	evSubmit
)

type event struct {
	kind  eventKind
	asset types.AssetRef
	value string
	reply chan SubmitResult
}

// Engine wires the coalescer, fetcher, calculator and tracker into one
// subscription lifecycle. All state is owned by a single loop goroutine;
// every mutation happens in one reaction turn, so no result of a
// superseded fetch can interleave with a newer one.
type Engine struct {
	opts   Options
	wallet Wallet
	clock  func() time.Time

	coalescer *Coalescer
	fetcher   *Fetcher

	mu             sync.RWMutex
	selectedAsset  types.AssetRef
	lastAmount     string
	toAddress      string
	latestQuote    *types.Quote
	outputAmount   float64
	quoteLoadError bool
	phase          Phase
	tracker        *Tracker

	events  chan event
	stop    chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
	running bool
}

// New creates an engine for one swap session. Missing durations fall back
// to the defaults (50ms debounce, 10s refresh).
func New(source QuoteSource, wallet Wallet, opts Options) *Engine {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	return &Engine{
		opts:      opts,
		wallet:    wallet,
		clock:     time.Now,
		coalescer: NewCoalescer(opts.DebounceWindow),
		fetcher:   NewFetcher(source, opts.Target),
		tracker:   NewTracker(),
		events:    make(chan event, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// WithClock overrides the engine clock for deterministic tests.
func (e *Engine) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	e.clock = clock
}

// Start injects the startup default-asset trigger and launches the
// reaction loop. The session begins awaiting its first quote.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return fmt.Errorf("engine is already running")
	}
	e.running = true

	now := e.clock()
	e.selectedAsset = e.opts.InitialAsset
	e.lastAmount = e.opts.InitialAmount
	e.phase = PhaseAwaitingQuote
	e.coalescer.OnAssetSelected(e.opts.InitialAsset, now)
	e.coalescer.OnAmountChanged(e.opts.InitialAmount, now)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	go e.run(ctx)
	return nil
}

// Close tears down the session: the refresh ticker, any pending debounce
// and interest in any outstanding fetch, atomically with the state.
func (e *Engine) Close() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	close(e.stop)
	<-e.done
}

// SelectAsset records a new source asset.
func (e *Engine) SelectAsset(a types.AssetRef) {
	e.send(event{kind: evSelectAsset, asset: a})
}

// SetAmount records an amount keystroke.
func (e *Engine) SetAmount(v string) {
	e.send(event{kind: evSetAmount, value: v})
}

// SetAddress records a destination address keystroke.
func (e *Engine) SetAddress(v string) {
	e.send(event{kind: evSetAddress, value: v})
}

// Submit runs the field-level checks: amount present and positive,
// destination address valid, quote available. All three are evaluated; if
// the quote is missing or no account is connected the swap is not
// attempted.
func (e *Engine) Submit() (SubmitResult, error) {
	reply := make(chan SubmitResult, 1)
	select {
	case e.events <- event{kind: evSubmit, reply: reply}:
	case <-e.stop:
		return SubmitResult{}, ErrClosed
	}
	select {
	case res := <-reply:
		return res, nil
	case <-e.stop:
		return SubmitResult{}, ErrClosed
	}
}

// Snapshot returns a read-only copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := Snapshot{
		SelectedAsset:  e.selectedAsset,
		LastAmount:     e.lastAmount,
		ToAddress:      e.toAddress,
		OutputAmount:   e.outputAmount,
		QuoteLoadError: e.quoteLoadError,
		Errors:         e.tracker.Flags(),
		Phase:          e.phase,
	}
	if e.latestQuote != nil {
		snap.Quote = *e.latestQuote
		snap.HasQuote = true
	}
	return snap
}

func (e *Engine) send(ev event) {
	select {
	case e.events <- ev:
	case <-e.stop:
	}
}

// run is the single reaction loop. One debounce timer is armed from the
// coalescer's earliest deadline; the refresh ticker re-emits the latest
// pair; fetch results are filtered by generation before they touch state.
func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.opts.RefreshInterval)
	defer ticker.Stop()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	rearm := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		d := e.coalescer.NextDeadline()
		if d.IsZero() {
			return
		}
		wait := d.Sub(e.clock())
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
	rearm()

	for {
		select {
		case ev := <-e.events:
			e.handleEvent(ctx, ev)
			rearm()
		case <-timer.C:
			e.pollTriggers(ctx)
			rearm()
		case <-ticker.C:
			if trig, ok := e.coalescer.OnTick(e.clock()); ok {
				e.startFetch(ctx, trig)
			}
		case res := <-e.fetcher.Results():
			e.applyResult(res)
		case <-e.stop:
			e.fetcher.Stop()
			e.cancel()
			return
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, ev event) {
	now := e.clock()

	switch ev.kind {
	case evSelectAsset:
		e.mu.Lock()
		e.selectedAsset = ev.asset
		e.mu.Unlock()
		e.coalescer.OnAssetSelected(ev.asset, now)

	case evSetAmount:
		e.mu.Lock()
		e.lastAmount = ev.value
		if types.ParseAmount(ev.value) > 0 {
			e.tracker.ClearError(ErrFromAmount)
		}
		e.mu.Unlock()
		e.coalescer.OnAmountChanged(ev.value, now)

	case evSetAddress:
		e.mu.Lock()
		e.toAddress = ev.value
		if e.wallet.IsAddressValid(ev.value) {
			e.tracker.ClearError(ErrToAddress)
		}
		e.mu.Unlock()

	case evSubmit:
		ev.reply <- e.doSubmit()
	}

	e.pollTriggers(ctx)
}

// pollTriggers drains every trigger whose debounce window elapsed.
func (e *Engine) pollTriggers(ctx context.Context) {
	now := e.clock()
	for {
		trig, ok := e.coalescer.Poll(now)
		if !ok {
			return
		}
		e.startFetch(ctx, trig)
	}
}

func (e *Engine) startFetch(ctx context.Context, trig Trigger) {
	e.mu.Lock()
	e.phase = PhaseAwaitingQuote
	e.mu.Unlock()
	e.fetcher.Fetch(ctx, trig)
}

// applyResult folds a fetch outcome into the state. Results from
// superseded generations are dropped without any transition, whatever
// order the network delivered them in.
func (e *Engine) applyResult(res Result) {
	if !e.fetcher.IsCurrent(res) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if res.Err != nil {
		// Keep the last-known quote on failure so the display does not
		// flicker; the next trigger retries automatically.
		e.quoteLoadError = true
		e.phase = PhaseStale
		return
	}

	quote := res.Quote
	e.quoteLoadError = false
	e.latestQuote = &quote
	e.outputAmount = ComputeOutput(quote, types.ParseAmount(res.Trigger.Amount))
	e.phase = PhaseFresh
	e.tracker.ClearError(ErrPrice)
}

func (e *Engine) doSubmit() SubmitResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracker.ClearAll()

	amount := types.ParseAmount(e.lastAmount)
	if amount <= 0 {
		e.tracker.SetError(ErrFromAmount)
	}
	if e.toAddress == "" || !e.wallet.IsAddressValid(e.toAddress) {
		e.tracker.SetError(ErrToAddress)
	}
	if e.latestQuote == nil {
		e.tracker.SetError(ErrPrice)
	}

	_, connected := e.wallet.Account()

	res := SubmitResult{
		NotConnected: !connected,
		Errors:       e.tracker.Flags(),
		ToAddress:    e.toAddress,
	}
	res.OK = e.tracker.IsValid() && connected
	if e.latestQuote != nil {
		res.Quote = *e.latestQuote
		res.Amount = amount
		res.OutputAmount = e.outputAmount
	}
	return res
}
