// Package theory defines the contract a decision procedure satisfies to take
// part in equality sharing.
package theory

import (
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/term"
)

// Index identifies a registered theory by its position in the engine's
// registration list. Stable for the engine's lifetime.
type Index int

// Theory is implemented by every registered decision procedure.
type Theory interface {
	// Name is a stable display name, also used to address the theory in
	// policy configuration.
	Name() string

	// AtomEndpoints returns the terms this theory exposes as combination
	// endpoints for an atom it owns. Must be pure for a fixed atom term
	// unless the theory also implements EndpointVersioner.
	AtomEndpoints(atom term.ID) []term.ID
}

// SharedTerms is the read-only view of the shared-term set handed to
// exporters.
type SharedTerms interface {
	Contains(t term.ID) bool
	// Terms returns the shared terms in ascending order.
	Terms() []term.ID
	Len() int
	// Epoch is the recompute epoch of the set, not the round epoch.
	Epoch() uint64
}

// SharedEq is an equality offered by an exporting theory. A and B are in
// whatever order the exporter chose.
type SharedEq struct {
	A       term.ID
	B       term.ID
	Explain reason.ID
}

// EqualitySharing is the optional capability that lets a theory export and
// import equalities. Theories without it are skipped during broadcast.
type EqualitySharing interface {
	// ExportEqualities is called once per round. It must not touch other
	// theories. b may be used to compose the explanation of each equality.
	ExportEqualities(shared SharedTerms, epoch uint64, b *reason.Builder) []SharedEq

	// ImportEquality incorporates eq into the theory's state. Called once
	// per delivered (equality, importer) pair, including equalities already
	// delivered in earlier rounds, so it must be idempotent.
	ImportEquality(eq SharedEq, b *reason.Builder)
}

// EndpointVersioner is implemented by theories whose AtomEndpoints answer
// can change for an atom already in the table. The engine recomputes the
// shared set whenever a reported version changes.
type EndpointVersioner interface {
	EndpointsVersion() uint64
}

// Sharing returns th's equality-sharing capability, if it has one.
func Sharing(th Theory) (EqualitySharing, bool) {
	sh, ok := th.(EqualitySharing)
	return sh, ok
}
