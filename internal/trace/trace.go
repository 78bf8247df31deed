// Package trace records what a combination round delivered.
//
// Events are written for every delivered (equality, importer) pair and are
// independent of diagnostic settings. Diagnostics are deduplicated per
// round and carry a rendered explanation for human consumption.
package trace

import (
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
)

// Event is one delivered equality.
type Event struct {
	Epoch   uint64
	From    theory.Index
	To      theory.Index
	A       term.ID
	B       term.ID
	Explain reason.ID
}

// Pair returns the event's terms in ascending order.
func (e Event) Pair() (term.ID, term.ID) {
	return Unordered(e.A, e.B)
}

// Unordered orders a and b so that symmetric equalities compare equal.
func Unordered(a, b term.ID) (term.ID, term.ID) {
	if b < a {
		return b, a
	}
	return a, b
}

// Key identifies a delivery for deduplication: exporter, importer, the
// unordered term pair and the round epoch.
type Key struct {
	From  theory.Index
	To    theory.Index
	Lo    term.ID
	Hi    term.ID
	Epoch uint64
}

// KeyOf returns the dedup key of e.
func KeyOf(e Event) Key {
	lo, hi := e.Pair()
	return Key{From: e.From, To: e.To, Lo: lo, Hi: hi, Epoch: e.Epoch}
}

// Diagnostic is the first-seen record for a Key within a round.
type Diagnostic struct {
	Event

	FromName string
	ToName   string

	// Because lists the rendered reason literals, capped by the engine's
	// MaxReasonLits setting. Truncated is set when the cap cut some off.
	Because   []string
	Truncated bool
}

// Trace is a drainable, append-only event queue.
type Trace struct {
	events []Event
}

// Push appends e.
func (t *Trace) Push(e Event) {
	t.events = append(t.events, e)
}

// Len returns the number of queued events.
func (t *Trace) Len() int {
	return len(t.events)
}

// Events returns a copy of the queued events without draining them.
func (t *Trace) Events() []Event {
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Take returns the queued events and empties the queue.
func (t *Trace) Take() []Event {
	out := t.events
	t.events = nil
	return out
}

// Clear discards queued events.
func (t *Trace) Clear() {
	t.events = nil
}
