package testutil

// FixedRunID returns the same run id every time.
//
// The same scenario with the same FixedRunID produces byte-identical
// stored traces and bundle READMEs. Unlike bundle.FixedGenerator, which
// returns ids in sequence, it never runs out.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run id generator. An empty id becomes
// "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed id. Implements bundle.IDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}
