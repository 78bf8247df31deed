// Package shared computes the set of terms referenced by two or more
// theories, the vocabulary over which Nelson–Oppen style combination
// exchanges equalities.
package shared

import (
	"fmt"
	"math/bits"
	"slices"

	"github.com/vaucouleur/decision/internal/atoms"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
)

// MaxTheories is the number of distinct owners an ownership mask can hold.
const MaxTheories = 64

// Oracle holds the current shared-term set and its recompute epoch.
//
// The set is rebuilt wholesale by Recompute; between recomputes it may be
// stale with respect to the atom table. Oracle implements
// theory.SharedTerms.
type Oracle struct {
	shared map[term.ID]struct{}
	sorted []term.ID
	epoch  uint64
}

var _ theory.SharedTerms = (*Oracle)(nil)

// NewOracle creates an oracle with an empty set at epoch 0.
func NewOracle() *Oracle {
	return &Oracle{shared: make(map[term.ID]struct{})}
}

// Epoch returns how many times the set has been recomputed (wrapping).
func (o *Oracle) Epoch() uint64 {
	return o.epoch
}

// Contains reports whether t is shared.
func (o *Oracle) Contains(t term.ID) bool {
	_, ok := o.shared[t]
	return ok
}

// Len returns the number of shared terms.
func (o *Oracle) Len() int {
	return len(o.shared)
}

// Terms returns the shared terms in ascending order.
func (o *Oracle) Terms() []term.ID {
	return slices.Clone(o.sorted)
}

// Recompute rebuilds the set from the atom table. For every atom, in
// registration order, the owning theory's endpoints for the atom's term
// each get the owner's bit; a term with two or more bits is shared.
//
// Panics if an atom names a theory outside theories or if there are more
// than MaxTheories theories.
func (o *Oracle) Recompute(tbl *atoms.Table, theories []theory.Theory) {
	if len(theories) > MaxTheories {
		panic(fmt.Sprintf("shared: %d theories exceed the %d-bit ownership mask", len(theories), MaxTheories))
	}

	owners := make(map[term.ID]uint64)
	for i := 0; i < tbl.Len(); i++ {
		a := tbl.At(i)
		if int(a.Theory) >= len(theories) {
			panic(fmt.Sprintf("shared: atom %d (term %s) owned by unregistered theory %d", i, a.Term, a.Theory))
		}
		bit := uint64(1) << uint(a.Theory)
		for _, t := range theories[a.Theory].AtomEndpoints(a.Term) {
			owners[t] |= bit
		}
	}

	clear(o.shared)
	o.sorted = o.sorted[:0]
	for t, mask := range owners {
		if bits.OnesCount64(mask) >= 2 {
			o.shared[t] = struct{}{}
			o.sorted = append(o.sorted, t)
		}
	}
	slices.Sort(o.sorted)

	o.epoch++
}
