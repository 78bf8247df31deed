// Package atoms holds the append-only table of asserted constraint atoms
// and the theory that owns each one.
package atoms

import (
	"fmt"

	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
)

// Atom pairs a term with the theory that interprets it.
type Atom struct {
	Term   term.ID
	Theory theory.Index
}

// Table is the append-only atom table. Atoms are never removed or mutated.
type Table struct {
	atoms []Atom
}

// Len returns the number of atoms.
func (t *Table) Len() int {
	return len(t.atoms)
}

// Push appends an atom.
func (t *Table) Push(a Atom) {
	if a.Theory < 0 {
		panic(fmt.Sprintf("atoms: negative theory index %d for term %s", a.Theory, a.Term))
	}
	t.atoms = append(t.atoms, a)
}

// At returns the i-th atom in registration order.
func (t *Table) At(i int) Atom {
	return t.atoms[i]
}

// All returns a copy of the atoms in registration order.
func (t *Table) All() []Atom {
	out := make([]Atom, len(t.atoms))
	copy(out, t.atoms)
	return out
}
