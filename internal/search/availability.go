// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"sync"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// Availability records backends disabled for the rest of the process,
// shared by every concurrent topic run.
type Availability struct {
	mu       sync.Mutex
	disabled map[types.Provider]string
}

// NewAvailability returns a registry with every backend enabled.
func NewAvailability() *Availability {
	return &Availability{disabled: make(map[types.Provider]string)}
}

// Disable switches p off with reason. It returns true only for the call
// that actually disabled it, so the caller can log the condition once.
func (a *Availability) Disable(p types.Provider, reason string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.disabled[p]; ok {
		return false
	}
	a.disabled[p] = reason
	return true
}

// Available reports whether p is still enabled.
func (a *Availability) Available(p types.Provider) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.disabled[p]
	return !ok
}

// Disabled returns the disabled providers in name order.
func (a *Availability) Disabled() []types.Provider {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.Provider, 0, len(a.disabled))
	for p := range a.disabled {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// runState tracks backends disabled for one topic run.
type runState struct {
	mu   sync.Mutex
	down map[types.Provider]bool
}

func newRunState() *runState {
	return &runState{down: make(map[types.Provider]bool)}
}

func (r *runState) disable(p types.Provider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down[p] {
		return false
	}
	r.down[p] = true
	return true
}

func (r *runState) isDown(p types.Provider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down[p]
}
