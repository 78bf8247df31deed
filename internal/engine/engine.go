package engine

import (
	"fmt"
	"log/slog"

	"github.com/vaucouleur/decision/internal/atoms"
	"github.com/vaucouleur/decision/internal/config"
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/shared"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
	"github.com/vaucouleur/decision/internal/trace"
)

// Engine is the theory-combination core: the atom table, the shared-term
// oracle, the explanation arena and the round driver.
//
// INVARIANTS:
//   - theories never changes after New (indexes are stable)
//   - the policy matrix and debug settings do not change during a round
//   - rounds are not re-entrant
type Engine struct {
	theories   []theory.Theory
	names      []string
	sharing    []theory.EqualitySharing // nil where a theory has no capability
	versioners []theory.EndpointVersioner

	atoms   atoms.Table
	oracle  *shared.Oracle
	reasons *reason.Arena

	// Refresh bookkeeping: atom count and endpoint versions at the last
	// recompute.
	sharedAtoms    int
	sharedVersions []uint64

	epoch   uint64
	inRound bool

	cfg    config.EngineConfig
	policy config.Matrix
	pairs  []pairOverride

	trace  trace.Trace
	diags  []trace.Diagnostic
	dedup  *dedupSet
	labels func(term.ID) string

	logger *slog.Logger
}

type pairOverride struct {
	from, to theory.Index
	allow    bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for diagnostics. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithConfig replaces the whole configuration. Rule names are resolved
// against the registered theories by New.
func WithConfig(cfg config.EngineConfig) EngineOption {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithPairPolicy allows or blocks one exporter→importer pair by index.
// Applied after the configuration's named rules, in option order. An
// out-of-range index or a self-pair makes New fail.
func WithPairPolicy(from, to theory.Index, allow bool) EngineOption {
	return func(e *Engine) {
		e.pairs = append(e.pairs, pairOverride{from: from, to: to, allow: allow})
	}
}

// WithReasons makes the engine allocate explanations in arena, so a host
// can share one arena between the engine and its own reasoning.
func WithReasons(arena *reason.Arena) EngineOption {
	return func(e *Engine) {
		e.reasons = arena
	}
}

// WithTermLabels sets how terms are labelled in DOT dumps.
func WithTermLabels(labels func(term.ID) string) EngineOption {
	return func(e *Engine) {
		e.labels = labels
	}
}

// New creates an engine over theories, in registration order.
//
// The theories slice is copied. Returns a *config.Error (wrapped) when the
// configuration names an unknown theory, contains a self-pair or an
// out-of-range index, or when more than config.MaxTheories are registered.
func New(theories []theory.Theory, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		theories: append([]theory.Theory(nil), theories...),
		oracle:   shared.NewOracle(),
		dedup:    newDedupSet(),
		cfg:      config.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.reasons == nil {
		e.reasons = reason.NewArena()
	}
	if e.labels == nil {
		e.labels = term.ID.String
	}

	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	n := len(e.theories)
	e.names = make([]string, n)
	e.sharing = make([]theory.EqualitySharing, n)
	e.versioners = make([]theory.EndpointVersioner, n)
	e.sharedVersions = make([]uint64, n)
	for i, th := range e.theories {
		e.names[i] = th.Name()
		if sh, ok := theory.Sharing(th); ok {
			e.sharing[i] = sh
		}
		if v, ok := th.(theory.EndpointVersioner); ok {
			e.versioners[i] = v
			e.sharedVersions[i] = v.EndpointsVersion()
		}
	}

	policy, err := e.cfg.Sharing.Resolve(e.names)
	if err != nil {
		return nil, fmt.Errorf("engine policy: %w", err)
	}
	for _, p := range e.pairs {
		if err := policy.Set(p.from, p.to, p.allow); err != nil {
			return nil, fmt.Errorf("engine policy: %w", err)
		}
	}
	e.policy = policy

	return e, nil
}

// NumTheories returns the number of registered theories.
func (e *Engine) NumTheories() int {
	return len(e.theories)
}

// Theory returns the theory at i. Panics if i is out of range.
func (e *Engine) Theory(i theory.Index) theory.Theory {
	e.mustTheory(i)
	return e.theories[i]
}

// TheoryName returns the registered name of theory i.
func (e *Engine) TheoryName(i theory.Index) string {
	e.mustTheory(i)
	return e.names[i]
}

// TheoryNames returns the registered names in registration order.
func (e *Engine) TheoryNames() []string {
	return append([]string(nil), e.names...)
}

// AddAtom appends an atom owned by theory th. The shared set is refreshed
// lazily at the start of the next round. Panics if th is not registered.
func (e *Engine) AddAtom(t term.ID, th theory.Index) {
	e.mustTheory(th)
	e.atoms.Push(atoms.Atom{Term: t, Theory: th})
}

// Atoms returns a copy of the atom table in registration order.
func (e *Engine) Atoms() []atoms.Atom {
	return e.atoms.All()
}

// Shared returns the shared-term set as of the last refresh.
func (e *Engine) Shared() theory.SharedTerms {
	return e.oracle
}

// Reasons returns the explanation arena.
func (e *Engine) Reasons() *reason.Arena {
	return e.reasons
}

// Epoch returns the round epoch: the number of completed rounds, wrapping.
func (e *Engine) Epoch() uint64 {
	return e.epoch
}

// Config returns the active configuration.
func (e *Engine) Config() config.EngineConfig {
	return e.cfg
}

// Policy returns a copy of the resolved pair policy. Changing the copy
// does not affect the engine; the policy is fixed after construction.
func (e *Engine) Policy() config.Matrix {
	return e.policy.Clone()
}

// SetDebug replaces the diagnostic settings. It is the administrative
// toggle: idempotent and local to this engine. Panics if called from inside
// a round.
func (e *Engine) SetDebug(d config.DebugEqSharing) error {
	if e.inRound {
		panic("engine: SetDebug called during a round")
	}
	cfg := e.cfg
	cfg.Debug = d
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	return nil
}

// TakeEvents drains the trace of delivered equalities.
func (e *Engine) TakeEvents() []trace.Event {
	return e.trace.Take()
}

// Events returns the undrained trace without draining it.
func (e *Engine) Events() []trace.Event {
	return e.trace.Events()
}

// TakeDiagnostics drains the recorded diagnostics.
func (e *Engine) TakeDiagnostics() []trace.Diagnostic {
	out := e.diags
	e.diags = nil
	return out
}

func (e *Engine) mustTheory(i theory.Index) {
	if i < 0 || int(i) >= len(e.theories) {
		panic(fmt.Sprintf("engine: theory index %d out of range (%d registered)", i, len(e.theories)))
	}
}
