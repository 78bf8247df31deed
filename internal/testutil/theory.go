// Package testutil provides scripted theories and trace assertions for
// tests of the combination engine.
package testutil

import (
	"slices"

	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
)

// ScriptedEq is an equality a ScriptedTheory exports, justified by the
// conjunction of Lits (a single literal becomes a leaf, none becomes the
// empty explanation).
type ScriptedEq struct {
	A, B term.ID
	Lits []sat.Lit
}

// ExportCall records one ExportEqualities invocation.
type ExportCall struct {
	Epoch       uint64
	SharedEpoch uint64
	Shared      []term.ID
}

// Import records one ImportEquality invocation and the shared set the
// importer could see at that moment.
type Import struct {
	Eq          theory.SharedEq
	SharedEpoch uint64
	Shared      []term.ID
}

// ScriptedTheory is a theory whose endpoints and exports are fixed up
// front. It records every call made to it.
//
// Rounds[i] is exported on the i-th export call; past the end nothing is
// exported unless RepeatLast is set.
type ScriptedTheory struct {
	TheoryName string
	Endpoints  map[term.ID][]term.ID
	Rounds     [][]ScriptedEq
	RepeatLast bool

	// OnlyShared drops scripted equalities whose terms are not both shared.
	OnlyShared bool

	// OnExport runs at the start of each export call.
	OnExport func(epoch uint64)

	// OnImport runs after each import is recorded.
	OnImport func(eq theory.SharedEq)

	// View is the engine's shared set, for recording what importers saw.
	View theory.SharedTerms

	Exports []ExportCall
	Imports []Import

	version uint64
}

var (
	_ theory.Theory            = (*ScriptedTheory)(nil)
	_ theory.EqualitySharing   = (*ScriptedTheory)(nil)
	_ theory.EndpointVersioner = (*ScriptedTheory)(nil)
)

// NewScriptedTheory creates a theory with no endpoints and no exports.
func NewScriptedTheory(name string) *ScriptedTheory {
	return &ScriptedTheory{TheoryName: name, Endpoints: make(map[term.ID][]term.ID)}
}

func (s *ScriptedTheory) Name() string { return s.TheoryName }

func (s *ScriptedTheory) AtomEndpoints(atom term.ID) []term.ID {
	return s.Endpoints[atom]
}

// SetEndpoints changes the endpoints of atom and bumps the endpoints
// version so the engine recomputes the shared set.
func (s *ScriptedTheory) SetEndpoints(atom term.ID, endpoints ...term.ID) {
	if s.Endpoints == nil {
		s.Endpoints = make(map[term.ID][]term.ID)
	}
	s.Endpoints[atom] = endpoints
	s.version++
}

func (s *ScriptedTheory) EndpointsVersion() uint64 {
	return s.version
}

// Observe points the recorder at the engine's shared set.
func (s *ScriptedTheory) Observe(view theory.SharedTerms) {
	s.View = view
}

func (s *ScriptedTheory) ExportEqualities(shared theory.SharedTerms, epoch uint64, b *reason.Builder) []theory.SharedEq {
	call := len(s.Exports)
	s.Exports = append(s.Exports, ExportCall{
		Epoch:       epoch,
		SharedEpoch: shared.Epoch(),
		Shared:      shared.Terms(),
	})
	if s.OnExport != nil {
		s.OnExport(epoch)
	}

	var script []ScriptedEq
	switch {
	case call < len(s.Rounds):
		script = s.Rounds[call]
	case s.RepeatLast && len(s.Rounds) > 0:
		script = s.Rounds[len(s.Rounds)-1]
	}

	var out []theory.SharedEq
	for _, eq := range script {
		if s.OnlyShared && !(shared.Contains(eq.A) && shared.Contains(eq.B)) {
			continue
		}
		kids := make([]reason.ID, len(eq.Lits))
		for i, l := range eq.Lits {
			kids[i] = b.Lit(l)
		}
		out = append(out, theory.SharedEq{A: eq.A, B: eq.B, Explain: b.And(kids...)})
	}
	return out
}

func (s *ScriptedTheory) ImportEquality(eq theory.SharedEq, _ *reason.Builder) {
	imp := Import{Eq: eq}
	if s.View != nil {
		imp.SharedEpoch = s.View.Epoch()
		imp.Shared = s.View.Terms()
	}
	s.Imports = append(s.Imports, imp)
	if s.OnImport != nil {
		s.OnImport(eq)
	}
}

// ImportedPairs returns the imported equalities as ordered pairs, in
// delivery order.
func (s *ScriptedTheory) ImportedPairs() [][2]term.ID {
	out := make([][2]term.ID, len(s.Imports))
	for i, imp := range s.Imports {
		out[i] = [2]term.ID{imp.Eq.A, imp.Eq.B}
	}
	return out
}

// EndpointsOnly is a theory without the equality-sharing capability.
type EndpointsOnly struct {
	TheoryName string
	Endpoints  map[term.ID][]term.ID
}

var _ theory.Theory = EndpointsOnly{}

func (e EndpointsOnly) Name() string { return e.TheoryName }

func (e EndpointsOnly) AtomEndpoints(atom term.ID) []term.ID {
	return slices.Clone(e.Endpoints[atom])
}
