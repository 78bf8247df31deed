package sat

import (
	"errors"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// ErrConflict is returned by Propagate when the clause set is unsatisfiable.
var ErrConflict = errors.New("sat: conflict")

// Kernel is the boolean kernel interface expected by the check-sat driver.
// A production kernel would also expose enqueue, conflict analysis and a
// decision heuristic; the combination core needs none of them.
type Kernel interface {
	// NewVar allocates a fresh variable.
	NewVar() Var
	// Add adds one clause.
	Add(clause ...Lit)
	// Propagate returns ErrConflict if the clauses added so far are UNSAT.
	Propagate() error
}

// NopKernel never conflicts. Useful when only the combination round is of
// interest.
type NopKernel struct {
	next Var
}

// NewVar allocates a fresh variable.
func (k *NopKernel) NewVar() Var {
	k.next++
	return k.next
}

// Add discards the clause.
func (k *NopKernel) Add(clause ...Lit) {}

// Propagate always succeeds.
func (k *NopKernel) Propagate() error {
	return nil
}

// GiniKernel is a Kernel backed by the gini CDCL solver.
type GiniKernel struct {
	g      *gini.Gini
	maxVar Var
}

// NewGiniKernel creates an empty gini-backed kernel.
func NewGiniKernel() *GiniKernel {
	return &GiniKernel{g: gini.New()}
}

// NewVar allocates a fresh variable.
func (k *GiniKernel) NewVar() Var {
	k.maxVar++
	return k.maxVar
}

// Add adds a clause. Variables beyond the allocated range are accepted and
// bump the allocation counter so NewVar never hands them out again.
func (k *GiniKernel) Add(clause ...Lit) {
	for _, m := range clause {
		if m.Var() > k.maxVar {
			k.maxVar = m.Var()
		}
		k.g.Add(m)
	}
	k.g.Add(z.LitNull)
}

// Propagate runs the solver to completion on the current clause set.
func (k *GiniKernel) Propagate() error {
	if k.g.Solve() < 0 {
		return ErrConflict
	}
	return nil
}

// Value reports the model value of m after a successful Propagate.
func (k *GiniKernel) Value(m Lit) bool {
	return k.g.Value(m)
}
