package harness

import (
	"fmt"
	"strings"

	"github.com/vaucouleur/decision/internal/digest"
	"github.com/vaucouleur/decision/internal/engine"
	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
	"github.com/vaucouleur/decision/internal/trace"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Name is the scenario name.
	Name string

	// Pass is true if every expectation held.
	Pass bool

	// Errors contains one message per failed expectation.
	Errors []string

	// Theories are the registered theory names, in order.
	Theories []string

	// Events is every delivery, in order.
	Events []trace.Event

	// Diagnostics is the first delivery of each key per round.
	Diagnostics []trace.Diagnostic

	// Shared is the shared set after the last round, sorted.
	Shared []term.ID

	// Epoch is the engine epoch after the last round.
	Epoch uint64

	// Imports holds the equalities each sharing theory imported, keyed by
	// theory name.
	Imports map[string][]theory.SharedEq

	// Bundle is the debug bundle directory, or "" if none was written.
	Bundle string

	// Engine and Terms stay available for persistence and rendering.
	Engine *engine.Engine
	Terms  *term.Context
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:    name,
		Pass:    true,
		Errors:  []string{},
		Imports: make(map[string][]theory.SharedEq),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Label renders a term by its structure, falling back to its handle when
// the result has no term context.
func (r *Result) Label(id term.ID) string {
	if r.Terms == nil || !r.Terms.Valid(id) {
		return id.String()
	}
	return r.Terms.Label(id)
}

// Because expands an explanation into formatted literals.
func (r *Result) Because(explain reason.ID) []string {
	if r.Engine == nil {
		return nil
	}
	lits := r.Engine.Reasons().Expand(explain)
	out := make([]string, len(lits))
	for i, l := range lits {
		out[i] = sat.Format(l)
	}
	return out
}

// EventLine renders one delivery, e.g. "@0 UF -> DL a = b  because v3".
func (r *Result) EventLine(ev trace.Event) string {
	return r.eqLine(fmt.Sprintf("@%d %s -> %s ", ev.Epoch, r.theoryName(ev.From), r.theoryName(ev.To)),
		ev.A, ev.B, strings.Join(r.Because(ev.Explain), ", "))
}

// DiagnosticLine renders a diagnostic with term labels and its capped
// reason.
func (r *Result) DiagnosticLine(d trace.Diagnostic) string {
	return r.eqLine(fmt.Sprintf("@%d %s -> %s ", d.Epoch, d.FromName, d.ToName),
		d.A, d.B, d.BecauseString())
}

func (r *Result) eqLine(prefix string, a, b term.ID, because string) string {
	s := prefix + r.Label(a) + " = " + r.Label(b)
	if because != "" {
		s += "  because " + because
	}
	return s
}

// Digest fingerprints the run: theories, sharing rules, shared set, final
// epoch and every delivery with its full explanation. Equal digests mean
// the runs made the same exchanges.
func (r *Result) Digest() (string, error) {
	in := digest.Run{
		Theories:   r.Theories,
		FinalEpoch: r.Epoch,
		Shared:     make([]string, len(r.Shared)),
		Deliveries: make([]digest.Delivery, len(r.Events)),
	}
	if r.Engine != nil {
		for _, rule := range r.Engine.Config().Sharing.Rules {
			in.Sharing = append(in.Sharing, digest.Rule{From: rule.From, To: rule.To, Allow: rule.Allow})
		}
	}
	for i, id := range r.Shared {
		in.Shared[i] = r.Label(id)
	}
	for i, ev := range r.Events {
		in.Deliveries[i] = digest.Delivery{
			Epoch:   ev.Epoch,
			From:    r.theoryName(ev.From),
			To:      r.theoryName(ev.To),
			A:       r.Label(ev.A),
			B:       r.Label(ev.B),
			Because: r.Because(ev.Explain),
		}
	}
	return digest.RunDigest(in)
}

func (r *Result) theoryName(i theory.Index) string {
	if int(i) < len(r.Theories) {
		return r.Theories[i]
	}
	return fmt.Sprintf("#%d", i)
}

// Render prints the observable outcome of the run: epoch, shared set,
// deliveries, diagnostics and per-theory imports. Golden files hold this
// text.
func (r *Result) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scenario: %s\n", r.Name)
	fmt.Fprintf(&sb, "theories: %s\n", strings.Join(r.Theories, ", "))
	fmt.Fprintf(&sb, "epoch: %d\n", r.Epoch)

	shared := make([]string, len(r.Shared))
	for i, id := range r.Shared {
		shared[i] = r.Label(id)
	}
	if len(shared) == 0 {
		sb.WriteString("shared: (none)\n")
	} else {
		fmt.Fprintf(&sb, "shared: %s\n", strings.Join(shared, ", "))
	}

	fmt.Fprintf(&sb, "events (%d):\n", len(r.Events))
	for _, ev := range r.Events {
		fmt.Fprintf(&sb, "  %s\n", r.EventLine(ev))
	}

	fmt.Fprintf(&sb, "diagnostics (%d):\n", len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&sb, "  %s\n", r.DiagnosticLine(d))
	}

	sb.WriteString("imports:\n")
	for _, name := range r.Theories {
		imports, ok := r.Imports[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  %s (%d)\n", name, len(imports))
		for _, eq := range imports {
			fmt.Fprintf(&sb, "    %s\n", r.eqLine("", eq.A, eq.B, strings.Join(r.Because(eq.Explain), ", ")))
		}
	}
	return sb.String()
}
