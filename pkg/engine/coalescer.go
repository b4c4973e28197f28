package engine

import (
	"time"

	"flash-swap/pkg/types"
)

// Trigger is a coalesced (asset, amount) pair signaling that a fresh quote
// is needed. Amount is the raw user input captured at trigger time.
type Trigger struct {
	Asset  types.AssetRef
	Amount string
}

// Equal reports whether two triggers carry the same pair.
func (t Trigger) Equal(o Trigger) bool {
	return t.Asset.Equal(o.Asset) && t.Amount == o.Amount
}

// Coalescer merges asset-selection events, amount-change events and the
// periodic refresh tick into a single ordered stream of triggers.
//
// Amount events are deduplicated by value and debounced by the quiet
// period; the combined (asset, amount) pair is deduplicated and debounced
// again before emission; a tick re-emits the last emitted pair unchanged.
//
// The coalescer holds no timers itself. Callers pass the current time into
// every method and arm a single timer from NextDeadline, which keeps the
// whole state machine deterministic under a virtual clock.
type Coalescer struct {
	debounce time.Duration

	asset    types.AssetRef
	hasAsset bool

	// amount debounce stage
	rawAmount      string
	hasRawAmount   bool
	pendingAmount  string
	amountPending  bool
	amountDeadline time.Time

	// committed debounced amount
	amount    string
	hasAmount bool

	// combined pair debounce stage
	lastCombined Trigger
	hasCombined  bool
	staged       Trigger
	pairPending  bool
	pairDeadline time.Time

	emitted    Trigger
	hasEmitted bool
}

// NewCoalescer creates a coalescer with the given debounce quiet period.
func NewCoalescer(debounce time.Duration) *Coalescer {
	return &Coalescer{debounce: debounce}
}

// OnAmountChanged records an amount keystroke. Repeats of the current value
// are suppressed before the debounce window is armed.
func (c *Coalescer) OnAmountChanged(v string, now time.Time) {
	if c.hasRawAmount && v == c.rawAmount {
		return
	}
	c.rawAmount = v
	c.hasRawAmount = true
	c.pendingAmount = v
	c.amountPending = true
	c.amountDeadline = now.Add(c.debounce)
}

// OnAssetSelected records a new source asset and stages a combined pair if
// an amount has been seen. Selecting the current asset again produces an
// identical pair, which the pair-level dedupe suppresses.
func (c *Coalescer) OnAssetSelected(a types.AssetRef, now time.Time) {
	c.asset = a
	c.hasAsset = true
	c.stagePair(now)
}

// OnTick re-emits the last emitted pair, forcing a periodic re-fetch even
// with no user input. Before the first pair emission there is nothing to
// refresh and ticks are ignored.
func (c *Coalescer) OnTick(now time.Time) (Trigger, bool) {
	if !c.hasEmitted {
		return Trigger{}, false
	}
	return c.emitted, true
}

// Poll advances the debounce stages to now and returns a trigger whose
// quiet period has elapsed, if any. Emissions are strictly ordered by
// deadline arrival.
func (c *Coalescer) Poll(now time.Time) (Trigger, bool) {
	c.advance(now)
	if c.pairPending && !now.Before(c.pairDeadline) {
		c.pairPending = false
		c.emitted = c.staged
		c.hasEmitted = true
		return c.emitted, true
	}
	return Trigger{}, false
}

// NextDeadline returns the earliest pending debounce deadline, or the zero
// time when nothing is staged.
func (c *Coalescer) NextDeadline() time.Time {
	var d time.Time
	if c.amountPending {
		d = c.amountDeadline
	}
	if c.pairPending && (d.IsZero() || c.pairDeadline.Before(d)) {
		d = c.pairDeadline
	}
	return d
}

// advance commits the amount debounce stage once its quiet period passed.
func (c *Coalescer) advance(now time.Time) {
	if c.amountPending && !now.Before(c.amountDeadline) {
		c.amountPending = false
		c.amount = c.pendingAmount
		c.hasAmount = true
		c.stagePair(now)
	}
}

// stagePair combines the latest asset and committed amount. Nothing is
// staged until both halves have emitted at least once; an unchanged pair
// is dropped; a changed pair restarts the pair debounce window.
func (c *Coalescer) stagePair(now time.Time) {
	if !c.hasAsset || !c.hasAmount {
		return
	}
	p := Trigger{Asset: c.asset, Amount: c.amount}
	if c.hasCombined && c.lastCombined.Equal(p) {
		return
	}
	c.lastCombined = p
	c.hasCombined = true
	c.staged = p
	c.pairPending = true
	c.pairDeadline = now.Add(c.debounce)
}
