package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaucouleur/decision/internal/atoms"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
)

// endpointTheory reports fixed endpoints per atom term.
type endpointTheory struct {
	name      string
	endpoints map[term.ID][]term.ID
}

func (e endpointTheory) Name() string { return e.name }

func (e endpointTheory) AtomEndpoints(t term.ID) []term.ID {
	return e.endpoints[t]
}

const (
	t1 term.ID = iota + 100
	t2
	t3
	x
	y
	z
)

func TestOracle_SharedTermCorrectness(t *testing.T) {
	thA := endpointTheory{name: "A", endpoints: map[term.ID][]term.ID{t1: {x, y}}}
	thB := endpointTheory{name: "B", endpoints: map[term.ID][]term.ID{t2: {y, z}}}

	var tbl atoms.Table
	tbl.Push(atoms.Atom{Term: t1, Theory: 0})
	tbl.Push(atoms.Atom{Term: t2, Theory: 1})

	o := NewOracle()
	o.Recompute(&tbl, []theory.Theory{thA, thB})

	assert.Equal(t, []term.ID{y}, o.Terms())
	assert.True(t, o.Contains(y))
	assert.False(t, o.Contains(x))
	assert.False(t, o.Contains(z))
	assert.Equal(t, uint64(1), o.Epoch())
}

func TestOracle_SameTheoryTwiceIsNotShared(t *testing.T) {
	thA := endpointTheory{name: "A", endpoints: map[term.ID][]term.ID{
		t1: {x, y},
		t2: {y},
	}}
	thB := endpointTheory{name: "B"}

	var tbl atoms.Table
	tbl.Push(atoms.Atom{Term: t1, Theory: 0})
	tbl.Push(atoms.Atom{Term: t2, Theory: 0})

	o := NewOracle()
	o.Recompute(&tbl, []theory.Theory{thA, thB})

	assert.Equal(t, 0, o.Len())
}

func TestOracle_RecomputeReplacesWholesale(t *testing.T) {
	thA := endpointTheory{name: "A", endpoints: map[term.ID][]term.ID{t1: {x}, t3: {z}}}
	thB := endpointTheory{name: "B", endpoints: map[term.ID][]term.ID{t2: {x}, t3: {z}}}
	theories := []theory.Theory{thA, thB}

	var first atoms.Table
	first.Push(atoms.Atom{Term: t1, Theory: 0})
	first.Push(atoms.Atom{Term: t2, Theory: 1})

	o := NewOracle()
	o.Recompute(&first, theories)
	assert.Equal(t, []term.ID{x}, o.Terms())

	var second atoms.Table
	second.Push(atoms.Atom{Term: t3, Theory: 0})
	second.Push(atoms.Atom{Term: t3, Theory: 1})
	o.Recompute(&second, theories)

	assert.Equal(t, []term.ID{z}, o.Terms())
	assert.False(t, o.Contains(x), "previous members must be discarded")
	assert.Equal(t, uint64(2), o.Epoch())
}

func TestOracle_TermsSortedAndCopied(t *testing.T) {
	thA := endpointTheory{name: "A", endpoints: map[term.ID][]term.ID{t1: {z, x, y}}}
	thB := endpointTheory{name: "B", endpoints: map[term.ID][]term.ID{t2: {y, z, x}}}

	var tbl atoms.Table
	tbl.Push(atoms.Atom{Term: t1, Theory: 0})
	tbl.Push(atoms.Atom{Term: t2, Theory: 1})

	o := NewOracle()
	o.Recompute(&tbl, []theory.Theory{thA, thB})

	got := o.Terms()
	assert.Equal(t, []term.ID{x, y, z}, got)
	got[0] = 0
	assert.Equal(t, []term.ID{x, y, z}, o.Terms())
}

func TestOracle_UnregisteredTheoryPanics(t *testing.T) {
	var tbl atoms.Table
	tbl.Push(atoms.Atom{Term: t1, Theory: 3})

	o := NewOracle()
	assert.Panics(t, func() {
		o.Recompute(&tbl, []theory.Theory{endpointTheory{name: "A"}})
	})
}

func TestOracle_TooManyTheoriesPanics(t *testing.T) {
	theories := make([]theory.Theory, MaxTheories+1)
	for i := range theories {
		theories[i] = endpointTheory{name: "T"}
	}
	o := NewOracle()
	assert.Panics(t, func() { o.Recompute(&atoms.Table{}, theories) })
}
