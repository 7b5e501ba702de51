package engine

import (
	"sync/atomic"

	"github.com/rhuss/askgate/pkg/observability"
	"github.com/rhuss/askgate/pkg/transport"
)

// Toggle is the process-wide enabled flag. It is safe for concurrent use.
type Toggle struct {
	enabled atomic.Bool
}

var _ transport.Switch = (*Toggle)(nil)

// NewToggle creates a toggle with the given initial state.
func NewToggle(enabled bool) *Toggle {
	t := &Toggle{}
	t.SetEnabled(enabled)
	return t
}

// Enabled reports the current state.
func (t *Toggle) Enabled() bool {
	return t.enabled.Load()
}

// SetEnabled sets the state.
func (t *Toggle) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
	setGauge(enabled)
}

// Flip inverts the state and returns the new value.
func (t *Toggle) Flip() bool {
	for {
		old := t.enabled.Load()
		if t.enabled.CompareAndSwap(old, !old) {
			setGauge(!old)
			return !old
		}
	}
}

func setGauge(enabled bool) {
	if enabled {
		observability.Enabled.Set(1)
	} else {
		observability.Enabled.Set(0)
	}
}
