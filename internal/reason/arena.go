package reason

import (
	"fmt"

	"github.com/vaucouleur/decision/internal/sat"
)

// ID is an opaque handle into an Arena.
type ID uint32

// Node is one justification. Exactly one of the two shapes is set: a leaf
// has IsLeaf and Lit; an AND node has Kids.
type Node struct {
	IsLeaf bool
	Lit    sat.Lit
	Kids   []ID
}

// Leaf builds a leaf node.
func Leaf(l sat.Lit) Node {
	return Node{IsLeaf: true, Lit: l}
}

// And builds an AND node over kids. The slice is copied on Push.
func And(kids ...ID) Node {
	return Node{Kids: kids}
}

// Arena is the append-only explanation store.
type Arena struct {
	nodes []Node
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of nodes ever pushed.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Push appends n and returns its handle. Panics if an AND child does not
// refer to an existing node.
func (a *Arena) Push(n Node) ID {
	id := ID(len(a.nodes))
	if !n.IsLeaf {
		for _, k := range n.Kids {
			if k >= id {
				panic(fmt.Sprintf("reason: child %d of new node %d does not exist yet", k, id))
			}
		}
		kids := make([]ID, len(n.Kids))
		copy(kids, n.Kids)
		n.Kids = kids
	}
	a.nodes = append(a.nodes, n)
	return id
}

// Lit pushes a leaf for l.
func (a *Arena) Lit(l sat.Lit) ID {
	return a.Push(Leaf(l))
}

// And composes kids. A single child is returned unchanged and the arena does
// not grow; any other count pushes a new AND node (zero children is the
// empty, trivially true explanation).
func (a *Arena) And(kids ...ID) ID {
	if len(kids) == 1 {
		a.mustValid(kids[0])
		return kids[0]
	}
	return a.Push(And(kids...))
}

// Get returns the node behind id. Panics on a handle this arena never issued.
func (a *Arena) Get(id ID) Node {
	a.mustValid(id)
	return a.nodes[id]
}

// Expand flattens the DAG rooted at root into the multiset of leaf literals
// reachable from it. Shared sub-DAGs contribute once per path; callers that
// need a set dedupe themselves. The traversal uses an explicit stack, so the
// depth of the DAG is not bounded by the goroutine stack.
//
// Literals come out in depth-first, left-to-right order.
func (a *Arena) Expand(root ID) []sat.Lit {
	out, _ := a.expand(root, -1)
	return out
}

// ExpandN returns the first max literals Expand would return, and whether
// any were left out. The walk stops as soon as it knows.
func (a *Arena) ExpandN(root ID, max int) ([]sat.Lit, bool) {
	if max < 0 {
		max = 0
	}
	return a.expand(root, max)
}

// expand walks root; max < 0 means unbounded.
func (a *Arena) expand(root ID, max int) ([]sat.Lit, bool) {
	a.mustValid(root)

	var out []sat.Lit
	stack := []ID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := a.nodes[id]
		if n.IsLeaf {
			if max >= 0 && len(out) == max {
				return out, true
			}
			out = append(out, n.Lit)
			continue
		}
		for i := len(n.Kids) - 1; i >= 0; i-- {
			stack = append(stack, n.Kids[i])
		}
	}
	return out, false
}

func (a *Arena) mustValid(id ID) {
	if int(id) >= len(a.nodes) {
		panic(fmt.Sprintf("reason: invalid handle %d (have %d nodes)", id, len(a.nodes)))
	}
}
