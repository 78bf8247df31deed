package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/vaucouleur/decision/internal/bundle"
	"github.com/vaucouleur/decision/internal/config"
	"github.com/vaucouleur/decision/internal/engine"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/testutil"
	"github.com/vaucouleur/decision/internal/theory"
)

// runOptions holds the knobs a caller may override for one run.
type runOptions struct {
	logger    *slog.Logger
	debug     *config.DebugEqSharing
	bundleDir string
	bundleIDs bundle.IDGenerator
}

// RunOption configures Run.
type RunOption func(*runOptions)

// WithLogger routes engine logs to l. Runs are silent by default.
func WithLogger(l *slog.Logger) RunOption {
	return func(o *runOptions) {
		o.logger = l
	}
}

// WithDebug overrides the scenario's diagnostics settings.
func WithDebug(d config.DebugEqSharing) RunOption {
	return func(o *runOptions) {
		o.debug = &d
	}
}

// WithBundleDir writes a debug bundle under dir after the last round,
// rooted at the explanation of the last delivery. Runs without deliveries
// write no bundle.
func WithBundleDir(dir string) RunOption {
	return func(o *runOptions) {
		o.bundleDir = dir
	}
}

// WithBundleIDs names bundles with ids instead of UUIDv7s.
func WithBundleIDs(ids bundle.IDGenerator) RunOption {
	return func(o *runOptions) {
		o.bundleIDs = ids
	}
}

// fixture is a scenario turned into live objects.
type fixture struct {
	terms    *term.Context
	names    map[string]term.ID
	theories []theory.Theory
	scripted map[string]*testutil.ScriptedTheory
	index    map[string]theory.Index
	engine   *engine.Engine
}

// Run executes a scenario on a fresh engine and returns the result.
//
// Execution flow:
//  1. Create the terms and scripted theories
//  2. Build an engine with the scenario's policy and diagnostics
//  3. For each round, add the atoms scheduled for it and run the round
//  4. Check expectations and collect the trace
//
// The returned error reports scenarios that cannot be built (unknown names,
// bad policy). Failed expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	f, err := build(scenario, o)
	if err != nil {
		return nil, fmt.Errorf("failed to build scenario: %w", err)
	}

	for r := 0; r < scenario.RoundCount(); r++ {
		for _, a := range scenario.Atoms {
			if a.Round == r {
				f.engine.AddAtom(f.names[a.Term], f.index[a.Theory])
			}
		}
		f.engine.Round()
	}

	result := collect(scenario, f)

	if o.bundleDir != "" && len(result.Events) > 0 {
		root := result.Events[len(result.Events)-1].Explain
		w := bundle.Writer{Dir: o.bundleDir, IDs: o.bundleIDs}
		result.Bundle = w.Write(f.engine, root)
	}

	for _, msg := range evaluateExpectations(result, scenario.Expect, f) {
		result.AddError(msg)
	}

	return result, nil
}

func build(s *Scenario, o runOptions) (*fixture, error) {
	f := &fixture{
		terms:    term.NewContext(),
		names:    make(map[string]term.ID, len(s.Terms)),
		scripted: make(map[string]*testutil.ScriptedTheory),
		index:    make(map[string]theory.Index, len(s.Theories)),
	}

	for i, td := range s.Terms {
		id, err := f.buildTerm(td)
		if err != nil {
			return nil, fmt.Errorf("terms[%d] %q: %w", i, td.Name, err)
		}
		f.names[td.Name] = id
	}

	for i, td := range s.Theories {
		th, err := f.buildTheory(td)
		if err != nil {
			return nil, fmt.Errorf("theories[%d] %q: %w", i, td.Name, err)
		}
		f.index[td.Name] = theory.Index(i)
		f.theories = append(f.theories, th)
	}

	for i, a := range s.Atoms {
		if _, ok := f.names[a.Term]; !ok {
			return nil, fmt.Errorf("atoms[%d]: unknown term %q", i, a.Term)
		}
		if _, ok := f.index[a.Theory]; !ok {
			return nil, fmt.Errorf("atoms[%d]: unknown theory %q", i, a.Theory)
		}
	}

	cfg := config.Default()
	cfg.Sharing = s.Sharing
	if s.Debug != nil {
		cfg.Debug = *s.Debug
	}
	if o.debug != nil {
		cfg.Debug = *o.debug
	}

	eng, err := engine.New(f.theories,
		engine.WithLogger(o.logger),
		engine.WithConfig(cfg),
		engine.WithTermLabels(f.terms.Label),
	)
	if err != nil {
		return nil, err
	}
	f.engine = eng

	for _, st := range f.scripted {
		st.Observe(eng.Shared())
	}
	return f, nil
}

func (f *fixture) term(name string) (term.ID, error) {
	id, ok := f.names[name]
	if !ok {
		return 0, fmt.Errorf("unknown term %q", name)
	}
	return id, nil
}

func (f *fixture) termList(names []string) ([]term.ID, error) {
	out := make([]term.ID, len(names))
	for i, n := range names {
		id, err := f.term(n)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func (f *fixture) sort(name string) term.SortID {
	if name == "" || name == "Int" {
		return f.terms.IntSort()
	}
	return f.terms.DeclareSort(name)
}

func (f *fixture) buildTerm(td TermDef) (term.ID, error) {
	switch {
	case td.Fn != "":
		args, err := f.termList(td.Args)
		if err != nil {
			return 0, err
		}
		return f.terms.App(td.Fn, args, f.sort(td.Sort)), nil
	case td.Eq != nil:
		args, err := f.termList(td.Eq)
		if err != nil {
			return 0, err
		}
		return f.terms.Eq(args[0], args[1]), nil
	case td.Le != nil:
		args, err := f.termList(td.Le)
		if err != nil {
			return 0, err
		}
		return f.terms.Le(args[0], args[1]), nil
	case td.Not != "":
		arg, err := f.term(td.Not)
		if err != nil {
			return 0, err
		}
		return f.terms.Not(arg), nil
	case td.Int != nil:
		return f.terms.IntConst(*td.Int), nil
	default:
		return f.terms.Const(td.Name, f.sort(td.Sort)), nil
	}
}

func (f *fixture) buildTheory(td TheoryDef) (theory.Theory, error) {
	endpoints := make(map[term.ID][]term.ID, len(td.Endpoints))
	// Sorted so a bad name is reported the same way every run.
	atomNames := make([]string, 0, len(td.Endpoints))
	for name := range td.Endpoints {
		atomNames = append(atomNames, name)
	}
	slices.Sort(atomNames)
	for _, name := range atomNames {
		atom, err := f.term(name)
		if err != nil {
			return nil, fmt.Errorf("endpoints: %w", err)
		}
		eps, err := f.termList(td.Endpoints[name])
		if err != nil {
			return nil, fmt.Errorf("endpoints of %q: %w", name, err)
		}
		endpoints[atom] = eps
	}

	if !td.IsSharing() {
		return testutil.EndpointsOnly{TheoryName: td.Name, Endpoints: endpoints}, nil
	}

	st := testutil.NewScriptedTheory(td.Name)
	st.Endpoints = endpoints
	st.RepeatLast = td.RepeatLast
	st.OnlyShared = td.OnlyShared
	for r, round := range td.Exports {
		script := make([]testutil.ScriptedEq, len(round))
		for j, ex := range round {
			a, err := f.term(ex.A)
			if err != nil {
				return nil, fmt.Errorf("exports[%d][%d]: %w", r, j, err)
			}
			b, err := f.term(ex.B)
			if err != nil {
				return nil, fmt.Errorf("exports[%d][%d]: %w", r, j, err)
			}
			lits := make([]sat.Lit, len(ex.Lits))
			for k, d := range ex.Lits {
				lits[k] = sat.FromDimacs(d)
			}
			script[j] = testutil.ScriptedEq{A: a, B: b, Lits: lits}
		}
		st.Rounds = append(st.Rounds, script)
	}
	f.scripted[td.Name] = st
	return st, nil
}

// collect snapshots the engine after the last round.
func collect(s *Scenario, f *fixture) *Result {
	r := NewResult(s.Name)
	r.Engine = f.engine
	r.Terms = f.terms
	r.Theories = f.engine.TheoryNames()
	r.Events = f.engine.Events()
	r.Diagnostics = f.engine.TakeDiagnostics()
	r.Shared = f.engine.Shared().Terms()
	r.Epoch = f.engine.Epoch()
	for name, st := range f.scripted {
		imports := make([]theory.SharedEq, len(st.Imports))
		for i, imp := range st.Imports {
			imports[i] = imp.Eq
		}
		r.Imports[name] = imports
	}
	return r
}
