package testutil

import (
	"fmt"
	"strings"

	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
	"github.com/vaucouleur/decision/internal/trace"
)

// dumpLimit caps the events printed in assertion failures.
const dumpLimit = 40

// Pair is an unordered term pair used by the hop assertions.
type Pair struct {
	A, B term.ID
}

// HasPair reports whether events contain a from→to delivery of a = b in
// either orientation.
func HasPair(events []trace.Event, from, to theory.Index, a, b term.ID) bool {
	for _, e := range events {
		if e.From == from && e.To == to && ((e.A == a && e.B == b) || (e.A == b && e.B == a)) {
			return true
		}
	}
	return false
}

// HasDir reports whether events contain any from→to delivery.
func HasDir(events []trace.Event, from, to theory.Index) bool {
	for _, e := range events {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// Dump renders the first events, one per line, for failure messages.
func Dump(events []trace.Event) string {
	var sb strings.Builder
	for i, e := range events {
		if i == dumpLimit {
			fmt.Fprintf(&sb, "... %d more\n", len(events)-dumpLimit)
			break
		}
		fmt.Fprintf(&sb, "epoch=%d %d->%d a=%s b=%s reason=%d\n", e.Epoch, e.From, e.To, e.A, e.B, e.Explain)
	}
	return sb.String()
}

// RequireNoEvents fails t if events is not empty.
func RequireNoEvents(t TB, events []trace.Event) {
	t.Helper()
	if len(events) > 0 {
		t.Fatalf("expected no eqshare events, got %d\nfirst events:\n%s", len(events), Dump(events))
	}
}

// RequireDir fails t unless some from→to delivery happened.
func RequireDir(t TB, events []trace.Event, from, to theory.Index) {
	t.Helper()
	if !HasDir(events, from, to) {
		t.Fatalf("missing eqshare direction %d=>%d\nfirst events:\n%s", from, to, Dump(events))
	}
}

// RequireNoDir fails t if any from→to delivery happened.
func RequireNoDir(t TB, events []trace.Event, from, to theory.Index) {
	t.Helper()
	if HasDir(events, from, to) {
		t.Fatalf("unexpected eqshare direction %d=>%d\nfirst events:\n%s", from, to, Dump(events))
	}
}

// RequireHop fails t unless a = b was delivered from→to.
func RequireHop(t TB, events []trace.Event, from, to theory.Index, a, b term.ID) {
	t.Helper()
	if !HasPair(events, from, to, a, b) {
		t.Fatalf("missing eqshare hop %d=>%d for pair %s = %s\nfirst events:\n%s", from, to, a, b, Dump(events))
	}
}

// RequireHopAny fails t unless at least one candidate was delivered from→to.
func RequireHopAny(t TB, events []trace.Event, from, to theory.Index, candidates ...Pair) {
	t.Helper()
	for _, c := range candidates {
		if HasPair(events, from, to, c.A, c.B) {
			return
		}
	}
	t.Fatalf("missing eqshare hop %d=>%d for any candidate pair\ncandidates=%v\nfirst events:\n%s", from, to, candidates, Dump(events))
}

// RequireNoHop fails t if any candidate was delivered from→to.
func RequireNoHop(t TB, events []trace.Event, from, to theory.Index, candidates ...Pair) {
	t.Helper()
	for _, c := range candidates {
		if HasPair(events, from, to, c.A, c.B) {
			t.Fatalf("unexpected eqshare hop %d=>%d for pair %s = %s\ncandidates=%v\nfirst events:\n%s", from, to, c.A, c.B, candidates, Dump(events))
		}
	}
}

// TB is the subset of testing.TB the assertions need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}
