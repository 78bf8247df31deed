package engine

import (
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/theory"
	"github.com/vaucouleur/decision/internal/trace"
)

// exported is an equality tagged with the theory that produced it.
type exported struct {
	from theory.Index
	eq   theory.SharedEq
}

// Round runs one equality-sharing round.
//
// Every theory with the sharing capability exports first, against the same
// shared set and epoch. Only then is each equality offered to every other
// sharing theory allowed by the policy. Equalities already delivered in
// earlier rounds are delivered again if re-exported.
//
// Panics if called re-entrantly, for example from inside an import.
func (e *Engine) Round() {
	if e.inRound {
		panic("engine: Round called re-entrantly")
	}
	e.inRound = true
	defer func() { e.inRound = false }()

	recomputed := e.refreshShared()

	epoch := e.epoch
	if e.cfg.Debug.Enabled && e.cfg.Debug.LogSharedStats {
		e.logger.Debug("eqshare shared terms",
			"epoch", epoch,
			"shared_epoch", e.oracle.Epoch(),
			"shared_terms", e.oracle.Len(),
			"atoms", e.sharedAtoms,
			"recomputed", recomputed,
		)
	}
	batch := e.exportPhase(epoch)
	e.broadcast(batch, epoch)

	e.epoch++
}

// refreshShared recomputes the oracle when the atom table changed length
// or a theory reported a new endpoints version since the last recompute.
// It reports whether a recompute happened.
func (e *Engine) refreshShared() bool {
	stale := e.atoms.Len() != e.sharedAtoms
	for i, v := range e.versioners {
		if v == nil {
			continue
		}
		if cur := v.EndpointsVersion(); cur != e.sharedVersions[i] {
			e.sharedVersions[i] = cur
			stale = true
		}
	}
	if !stale {
		return false
	}

	e.oracle.Recompute(&e.atoms, e.theories)
	e.sharedAtoms = e.atoms.Len()
	return true
}

func (e *Engine) exportPhase(epoch uint64) []exported {
	var batch []exported
	for i, sh := range e.sharing {
		if sh == nil {
			continue
		}
		from := theory.Index(i)
		eqs := sh.ExportEqualities(e.oracle, epoch, reason.NewBuilder(e.reasons))

		if e.cfg.Debug.Enabled && e.cfg.Debug.LogExports {
			e.logger.Debug("eqshare export",
				"epoch", epoch,
				"theory", e.names[i],
				"count", len(eqs),
			)
		}
		for _, eq := range eqs {
			batch = append(batch, exported{from: from, eq: eq})
		}
	}
	return batch
}

func (e *Engine) broadcast(batch []exported, epoch uint64) {
	e.dedup.Reset()
	for _, x := range batch {
		for j, sh := range e.sharing {
			to := theory.Index(j)
			if to == x.from || sh == nil {
				continue
			}
			if !e.policy.Allowed(x.from, to) {
				continue
			}

			ev := trace.Event{
				Epoch:   epoch,
				From:    x.from,
				To:      to,
				A:       x.eq.A,
				B:       x.eq.B,
				Explain: x.eq.Explain,
			}
			e.trace.Push(ev)
			if e.dedup.FirstSeen(trace.KeyOf(ev)) {
				e.diagnose(ev)
			}

			sh.ImportEquality(x.eq, reason.NewBuilder(e.reasons))
		}
	}
}

// diagnose records the first delivery of a key in this round and logs it
// when diagnostics are enabled.
func (e *Engine) diagnose(ev trace.Event) {
	lits, truncated := e.reasons.ExpandN(ev.Explain, e.cfg.Debug.MaxReasonLits)
	because := make([]string, len(lits))
	for i, l := range lits {
		because[i] = sat.Format(l)
	}

	d := trace.Diagnostic{
		Event:     ev,
		FromName:  e.names[ev.From],
		ToName:    e.names[ev.To],
		Because:   because,
		Truncated: truncated,
	}
	e.diags = append(e.diags, d)

	if e.cfg.Debug.Enabled && e.cfg.Debug.LogImports {
		e.logger.Debug("eqshare",
			"epoch", ev.Epoch,
			"from", d.FromName,
			"to", d.ToName,
			"a", ev.A.String(),
			"b", ev.B.String(),
			"because", d.BecauseString(),
		)
	}
}
