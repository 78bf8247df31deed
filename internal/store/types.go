package store

import (
	"github.com/vaucouleur/decision/internal/config"
	"github.com/vaucouleur/decision/internal/trace"
)

// Run describes one stored run.
type Run struct {
	ID         string
	Name       string
	Theories   []string
	Config     config.EngineConfig
	Rounds     int
	FinalEpoch uint64
	Outcome    string
	Digest     string // content digest of the run's exchanges, "" if not computed
}

// Event is a stored eqshare event. Seq is its position in the run's
// trace, starting at 1.
type Event struct {
	Seq int64
	trace.Event
	LabelA string
	LabelB string
}

// Diagnostic is a stored diagnostic record.
type Diagnostic struct {
	Seq int64
	trace.Diagnostic
}
