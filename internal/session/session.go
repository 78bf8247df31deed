// Package session is the host-facing entry point: it owns a term context,
// a boolean kernel and a combination engine, and runs check-sat over them.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vaucouleur/decision/internal/bundle"
	"github.com/vaucouleur/decision/internal/engine"
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
	"github.com/vaucouleur/decision/internal/trace"
)

// CheckResult is the outcome of CheckSat.
type CheckResult int

const (
	Unknown CheckResult = iota
	Sat
	Unsat
)

func (r CheckResult) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Assertion is one asserted literal and its label. Term is set only for
// theory atoms.
type Assertion struct {
	Lit    sat.Lit
	Label  string
	Term   term.ID
	IsAtom bool
}

// Session drives one problem instance.
type Session struct {
	terms  *term.Context
	kernel sat.Kernel
	engine *engine.Engine

	asserted []Assertion
	leaves   []reason.ID

	bundles    bundle.Writer
	lastBundle string
	logger     *slog.Logger

	engineOpts []engine.EngineOption
}

// Option configures a Session.
type Option func(*Session)

// WithKernel replaces the default gini-backed kernel.
func WithKernel(k sat.Kernel) Option {
	return func(s *Session) {
		s.kernel = k
	}
}

// WithEngineOptions passes options through to engine.New.
func WithEngineOptions(opts ...engine.EngineOption) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithBundleDir makes CheckSat write a debug bundle under dir on UNSAT
// while diagnostics are enabled.
func WithBundleDir(dir string) Option {
	return func(s *Session) {
		s.bundles.Dir = dir
	}
}

// WithBundleIDs sets the generator that names bundles.
func WithBundleIDs(ids bundle.IDGenerator) Option {
	return func(s *Session) {
		s.bundles.IDs = ids
	}
}

// WithLogger sets the session logger. It is also handed to the engine
// unless an engine option overrides it.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New creates a session over terms and theories. Theories usually hold the
// same terms context to compute endpoints.
func New(terms *term.Context, theories []theory.Theory, opts ...Option) (*Session, error) {
	s := &Session{terms: terms}
	for _, opt := range opts {
		opt(s)
	}
	if s.terms == nil {
		s.terms = term.NewContext()
	}
	if s.kernel == nil {
		s.kernel = sat.NewGiniKernel()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	engOpts := append([]engine.EngineOption{
		engine.WithLogger(s.logger),
		engine.WithTermLabels(s.terms.Label),
	}, s.engineOpts...)
	eng, err := engine.New(theories, engOpts...)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.engine = eng
	return s, nil
}

// Terms returns the term context.
func (s *Session) Terms() *term.Context { return s.terms }

// Engine returns the combination engine.
func (s *Session) Engine() *engine.Engine { return s.engine }

// DeclareSort declares an uninterpreted sort, or returns the existing one.
func (s *Session) DeclareSort(name string) term.SortID { return s.terms.DeclareSort(name) }

// IntSort returns the built-in integer sort.
func (s *Session) IntSort() term.SortID { return s.terms.IntSort() }

// DeclareConst creates a fresh constant named name of the given sort.
func (s *Session) DeclareConst(name string, sort term.SortID) term.ID {
	return s.terms.Const(name, sort)
}

// IntConst returns the integer literal v.
func (s *Session) IntConst(v int64) term.ID { return s.terms.IntConst(v) }

// App returns the application of fn to args with result sort out.
func (s *Session) App(fn string, args []term.ID, out term.SortID) term.ID {
	return s.terms.App(fn, args, out)
}

// Eq returns the equality atom a = b.
func (s *Session) Eq(a, b term.ID) term.ID { return s.terms.Eq(a, b) }

// Le returns the difference-logic atom a <= b.
func (s *Session) Le(a, b term.ID) term.ID { return s.terms.Le(a, b) }

// Not returns the negation of t.
func (s *Session) Not(t term.ID) term.ID { return s.terms.Not(t) }

// AssertAtom asserts t as an atom owned by theory th. A fresh kernel
// variable is allocated and its positive literal asserted as a unit
// clause; the literal is returned. Panics if t is not a valid term or th is
// not registered.
func (s *Session) AssertAtom(t term.ID, th theory.Index, label string) sat.Lit {
	if !s.terms.Valid(t) {
		panic(fmt.Sprintf("session: invalid term %s", t))
	}
	s.engine.AddAtom(t, th)
	l := s.kernel.NewVar().Pos()
	s.assert(Assertion{Lit: l, Label: label, Term: t, IsAtom: true})
	return l
}

// NewVar allocates a kernel variable for bare boolean assertions.
func (s *Session) NewVar() sat.Var { return s.kernel.NewVar() }

// AssertLit asserts a bare boolean literal.
func (s *Session) AssertLit(l sat.Lit, label string) {
	s.assert(Assertion{Lit: l, Label: label})
}

func (s *Session) assert(a Assertion) {
	s.kernel.Add(a.Lit)
	s.asserted = append(s.asserted, a)
	s.leaves = append(s.leaves, s.engine.Reasons().Lit(a.Lit))
}

// Assertions returns the assertions in order.
func (s *Session) Assertions() []Assertion {
	return append([]Assertion(nil), s.asserted...)
}

// CheckSat propagates the kernel. A conflict yields Unsat, justified by the
// conjunction of all asserted literals; with diagnostics enabled and a
// bundle directory set, a bundle rooted there is written. Otherwise one
// combination round runs. With no theory atoms the kernel's answer is
// complete and Sat is returned; with atoms the theories have not been
// asked for consistency, so the result is Unknown.
func (s *Session) CheckSat() CheckResult {
	err := s.kernel.Propagate()
	if errors.Is(err, sat.ErrConflict) {
		root := s.engine.Reasons().And(s.leaves...)
		s.logger.Debug("check-sat conflict", "assertions", len(s.asserted), "root", root)
		if s.engine.Config().Debug.Enabled && s.bundles.Dir != "" {
			s.lastBundle = s.bundles.Write(s.engine, root)
		}
		return Unsat
	}

	s.engine.Round()
	if len(s.engine.Atoms()) == 0 {
		return Sat
	}
	return Unknown
}

// LastBundle returns the path of the last bundle written, or "".
func (s *Session) LastBundle() string { return s.lastBundle }

// TakeEvents drains the engine's equality-sharing trace.
func (s *Session) TakeEvents() []trace.Event { return s.engine.TakeEvents() }
