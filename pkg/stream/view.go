package stream

import (
	"sync"

	"github.com/parlorchat/parlor/pkg/chat"
)

// View is the ordered sequence of events for one controller mount.
// Entries are append-only and never reordered; the whole sequence is
// replaced when a history load resolves and rebuilt from scratch on the
// next mount.
//
// Appends compare against the last entry under the lock, so the
// duplicate check always runs against the state at the time of arrival
// even under rapid consecutive arrivals.
type View struct {
	mu     sync.Mutex
	events []chat.Event
}

// NewView returns an empty view.
func NewView() *View {
	return &View{}
}

// Append adds ev unless it duplicates the immediately preceding entry
// (same sender and text; timestamps ignored). It reports whether the
// event was appended.
func (v *View) Append(ev chat.Event) bool {
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if n := len(v.events); n > 0 && v.events[n-1].SameMessage(ev) {
		return false
	}
	v.events = append(v.events, ev)
	return true
}

// Replace swaps the whole sequence for the given history, in the order
// received. Live events that arrived before a slow history load are
// dropped by the replacement; that interleaving is an accepted edge
// case of the mount contract.
func (v *View) Replace(events []chat.Event) {
	if v == nil {
		return
	}
	v.mu.Lock()
	v.events = append([]chat.Event(nil), events...)
	v.mu.Unlock()
}

// Snapshot returns a copy of the current sequence for rendering.
func (v *View) Snapshot() []chat.Event {
	if v == nil {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]chat.Event(nil), v.events...)
}

// Len returns the number of entries.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.events)
}
