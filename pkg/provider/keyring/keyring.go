// Package keyring rotates API keys round-robin so that load, and quota
// exhaustion, is spread across every key configured for a provider.
package keyring

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrEmpty is returned when a ring is created or replaced with no keys.
var ErrEmpty = errors.New("keyring: no keys")

// Ring hands out keys in round-robin order. It is safe for concurrent use.
type Ring struct {
	mu   sync.RWMutex
	keys []string
	next atomic.Uint64

	// OnRotate, if set, is called with every key handed out.
	OnRotate func()
}

// New creates a ring over keys. Empty entries are dropped.
func New(keys []string) (*Ring, error) {
	r := &Ring{}
	if err := r.Replace(keys); err != nil {
		return nil, err
	}
	return r, nil
}

// Next returns the next key in rotation.
func (r *Ring) Next() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := r.next.Add(1) - 1
	if r.OnRotate != nil {
		r.OnRotate()
	}
	return r.keys[n%uint64(len(r.keys))]
}

// Len returns the number of keys.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// Replace swaps the key set. Rotation continues from the current position.
func (r *Ring) Replace(keys []string) error {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return ErrEmpty
	}
	r.mu.Lock()
	r.keys = clean
	r.mu.Unlock()
	return nil
}
