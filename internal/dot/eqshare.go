package dot

import (
	"fmt"
	"strings"

	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
	"github.com/vaucouleur/decision/internal/trace"
)

// EqLimits bounds an eqshare rendering.
type EqLimits struct {
	MaxEvents          int
	MaxReasonLits      int
	IncludeReasonNodes bool
}

// DefaultEqLimits returns 300 events, 6 literals per edge, no reason boxes.
func DefaultEqLimits() EqLimits {
	return EqLimits{MaxEvents: 300, MaxReasonLits: 6}
}

// EqShare renders events as a digraph with one node per term and one edge
// per distinct (exporter, importer, unordered pair, epoch). Edge labels
// read "FROM→TO @epoch" followed by up to MaxReasonLits literals of the
// expanded explanation. reasons may be nil, in which case no literals are
// shown. labels may be nil to use the term handle.
func EqShare(events []trace.Event, reasons *reason.Arena, names func(theory.Index) string, labels func(term.ID) string, lim EqLimits) string {
	if labels == nil {
		labels = term.ID.String
	}

	var sb strings.Builder
	sb.WriteString("digraph EqShare {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [fontname=\"Helvetica\"];\n")

	nodeOf := make(map[term.ID]string)
	var order []term.ID
	node := func(t term.ID) string {
		if n, ok := nodeOf[t]; ok {
			return n
		}
		n := fmt.Sprintf("t%d", len(order))
		nodeOf[t] = n
		order = append(order, t)
		return n
	}

	seen := make(map[trace.Key]struct{})
	for i, ev := range events {
		if i >= lim.MaxEvents {
			break
		}
		k := trace.KeyOf(ev)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		na, nb := node(ev.A), node(ev.B)

		label := escape(fmt.Sprintf("%s→%s @%d", names(ev.From), names(ev.To), ev.Epoch))
		if reasons != nil {
			if lits := literalList(reasons.Expand(ev.Explain), lim.MaxReasonLits); lits != "" {
				label += `\n` + escape(lits)
			}
		}
		fmt.Fprintf(&sb, "  %s -> %s [label=\"%s\"];\n", na, nb, label)

		if lim.IncludeReasonNodes {
			rn := fmt.Sprintf("r%d", ev.Explain)
			fmt.Fprintf(&sb, "  %s [shape=box,style=dashed,label=\"reason %d\"];\n", rn, ev.Explain)
			fmt.Fprintf(&sb, "  %s -> %s [style=dotted,arrowhead=none];\n", na, rn)
			fmt.Fprintf(&sb, "  %s -> %s [style=dotted,arrowhead=none];\n", rn, nb)
		}
	}

	for _, t := range order {
		fmt.Fprintf(&sb, "  %s [shape=ellipse,label=\"%s\"];\n", nodeOf[t], escape(labels(t)))
	}

	if len(events) > lim.MaxEvents {
		fmt.Fprintf(&sb, "  truncated [shape=note,label=\"TRUNCATED: events=%d max_events=%d\"];\n",
			len(events), lim.MaxEvents)
	}

	sb.WriteString("}\n")
	return sb.String()
}

func literalList(lits []sat.Lit, max int) string {
	var sb strings.Builder
	for i, l := range lits {
		if i >= max {
			break
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(sat.Format(l))
	}
	if len(lits) > max {
		sb.WriteString(",...")
	}
	return sb.String()
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escape makes s safe inside a DOT double-quoted string. Apply it to
// text pieces before joining them with \n line breaks.
func escape(s string) string {
	return dotEscaper.Replace(s)
}
