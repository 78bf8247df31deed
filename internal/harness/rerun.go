package harness

import (
	"github.com/vaucouleur/decision/internal/config"
)

// DebugRun holds both runs of RunWithDebugOnMismatch.
type DebugRun struct {
	// First ran with the scenario's own diagnostics settings.
	First *Result

	// Rerun ran with diagnostics forced on. Nil when First passed.
	Rerun *Result
}

// Pass reports whether the first run met every expectation.
func (d *DebugRun) Pass() bool {
	return d.First.Pass
}

// RunWithDebugOnMismatch runs the scenario returned by makeScenario. If an
// expectation fails it calls makeScenario again, reruns with verbose
// diagnostics and writes a debug bundle when WithBundleDir is given.
//
// The first run never writes a bundle. Engines are not reused between the
// two runs; a rerun starts from a freshly built scenario so that scripted
// theories replay from their first round.
func RunWithDebugOnMismatch(makeScenario func() (*Scenario, error), opts ...RunOption) (*DebugRun, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	first, err := makeScenario()
	if err != nil {
		return nil, err
	}
	quiet := append(append([]RunOption(nil), opts...), WithBundleDir(""))
	res, err := Run(first, quiet...)
	if err != nil {
		return nil, err
	}
	out := &DebugRun{First: res}
	if res.Pass {
		return out, nil
	}

	second, err := makeScenario()
	if err != nil {
		return nil, err
	}
	debug := config.DefaultDebug()
	switch {
	case o.debug != nil:
		debug = *o.debug
	case second.Debug != nil:
		debug = *second.Debug
	}
	loud := append(append([]RunOption(nil), opts...), WithDebug(debug.Verbose()))
	out.Rerun, err = Run(second, loud...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
