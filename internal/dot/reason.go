package dot

import (
	"fmt"
	"strings"

	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
)

// ReasonLimits bounds a reason DAG rendering.
type ReasonLimits struct {
	MaxNodes    int
	MaxLabelLen int
}

// DefaultReasonLimits returns 300 nodes and 64-byte leaf labels.
func DefaultReasonLimits() ReasonLimits {
	return ReasonLimits{MaxNodes: 300, MaxLabelLen: 64}
}

// Reason renders the DAG reachable from root, visited breadth-first and
// cut off after MaxNodes nodes. Shared subgraphs appear once. Nodes are
// named r0, r1, ... in visit order; leaves are ellipses, AND nodes are
// boxes labelled with their arity. Edges to nodes past the cutoff are
// omitted.
func Reason(arena *reason.Arena, root reason.ID, lim ReasonLimits) string {
	seen := map[reason.ID]struct{}{root: {}}
	queue := []reason.ID{root}
	var order []reason.ID

	for len(queue) > 0 && len(order) < lim.MaxNodes {
		r := queue[0]
		queue = queue[1:]
		order = append(order, r)
		for _, k := range arena.Get(r).Kids {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				queue = append(queue, k)
			}
		}
	}

	name := make(map[reason.ID]string, len(order))
	for i, r := range order {
		name[r] = fmt.Sprintf("r%d", i)
	}

	var sb strings.Builder
	sb.WriteString("digraph Reason {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [fontname=\"Helvetica\"];\n")

	for _, r := range order {
		n := arena.Get(r)
		if n.IsLeaf {
			lab := sat.Format(n.Lit)
			if lim.MaxLabelLen > 0 && len(lab) > lim.MaxLabelLen {
				lab = lab[:lim.MaxLabelLen]
			}
			fmt.Fprintf(&sb, "  %s [shape=ellipse,label=\"%s\"];\n", name[r], lab)
			continue
		}
		fmt.Fprintf(&sb, "  %s [shape=box,label=\"AND (%d)\"];\n", name[r], len(n.Kids))
	}

	for _, r := range order {
		for _, k := range arena.Get(r).Kids {
			if dst, ok := name[k]; ok {
				fmt.Fprintf(&sb, "  %s -> %s;\n", name[r], dst)
			}
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}
