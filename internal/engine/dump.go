package engine

import (
	"github.com/vaucouleur/decision/internal/dot"
	"github.com/vaucouleur/decision/internal/reason"
)

// DumpEqShareDOT renders the undrained trace with default limits.
func (e *Engine) DumpEqShareDOT() string {
	return e.DumpEqShareDOTWith(dot.DefaultEqLimits())
}

// DumpEqShareDOTWith renders the undrained trace with explicit limits.
func (e *Engine) DumpEqShareDOTWith(lim dot.EqLimits) string {
	return dot.EqShare(e.trace.Events(), e.reasons, e.TheoryName, e.labels, lim)
}

// DumpReasonDOT renders the explanation DAG rooted at root.
func (e *Engine) DumpReasonDOT(root reason.ID) string {
	return dot.Reason(e.reasons, root, dot.DefaultReasonLimits())
}
