package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_SetAndClear(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.IsValid())

	tr.SetError(ErrFromAmount)
	assert.True(t, tr.HasError(ErrFromAmount))
	assert.False(t, tr.IsValid())

	tr.ClearError(ErrFromAmount)
	assert.False(t, tr.HasError(ErrFromAmount))
	assert.True(t, tr.IsValid())
}

func TestTracker_SetIsIdempotent(t *testing.T) {
	tr := NewTracker()
	tr.SetError(ErrPrice)
	tr.SetError(ErrPrice)

	assert.Len(t, tr.Flags(), 1)
	assert.True(t, tr.HasError(ErrPrice))
}

func TestTracker_ClearAbsentFlagIsNoOp(t *testing.T) {
	tr := NewTracker()
	tr.ClearError(ErrToAddress)
	assert.True(t, tr.IsValid())
}

func TestTracker_ClearAll(t *testing.T) {
	tr := NewTracker()
	tr.SetError(ErrFromAmount)
	tr.SetError(ErrToAddress)
	tr.SetError(ErrPrice)

	tr.ClearAll()
	assert.True(t, tr.IsValid())
	assert.Empty(t, tr.Flags())
}

func TestTracker_FlagsReturnsCopy(t *testing.T) {
	tr := NewTracker()
	tr.SetError(ErrPrice)

	flags := tr.Flags()
	delete(flags, ErrPrice)
	assert.True(t, tr.HasError(ErrPrice), "mutating the copy must not affect the tracker")
}
