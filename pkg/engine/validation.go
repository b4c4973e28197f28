package engine

// Field-level error flag names used by the engine and the CLI layer.
const (
	ErrFromAmount = "fromAmount"
	ErrToAddress  = "toAddress"
	ErrPrice      = "price"
)

// Tracker holds the set of named validation error flags. It is pure state:
// callers decide when a field is invalid, the tracker only records it.
type Tracker struct {
	flags map[string]bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{flags: make(map[string]bool)}
}

// SetError marks a field as failing. Setting an already-set flag is a no-op.
func (t *Tracker) SetError(name string) {
	t.flags[name] = true
}

// ClearError removes a flag. Clearing an absent flag is a no-op.
func (t *Tracker) ClearError(name string) {
	delete(t.flags, name)
}

// ClearAll removes every flag.
func (t *Tracker) ClearAll() {
	t.flags = make(map[string]bool)
}

// HasError reports whether the named flag is set.
func (t *Tracker) HasError(name string) bool {
	return t.flags[name]
}

// IsValid reports whether no flags are set.
func (t *Tracker) IsValid() bool {
	return len(t.flags) == 0
}

// Flags returns a copy of the current flag set.
func (t *Tracker) Flags() map[string]bool {
	out := make(map[string]bool, len(t.flags))
	for k, v := range t.flags {
		out[k] = v
	}
	return out
}
