package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/testutil"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Expectation that failed, e.g. "hop"
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Trace    []string // Rendered deliveries for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, line := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
		}
	}

	return buf.String()
}

// checker evaluates expectations against one result.
type checker struct {
	r     *Result
	f     *fixture
	trace []string
}

func (c *checker) fail(typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Trace: c.trace}
}

// evaluateExpectations runs every set expectation and returns one message
// per failure, in a fixed order.
func evaluateExpectations(r *Result, exp Expect, f *fixture) []string {
	c := &checker{r: r, f: f}
	for _, ev := range r.Events {
		c.trace = append(c.trace, r.EventLine(ev))
	}

	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if exp.Epoch != nil && r.Epoch != *exp.Epoch {
		add(c.fail("epoch", fmt.Sprint(*exp.Epoch), fmt.Sprint(r.Epoch)))
	}
	if exp.Shared != nil {
		add(c.checkShared(exp.Shared))
	}
	if exp.Events != nil && len(r.Events) != *exp.Events {
		add(c.fail("events", fmt.Sprintf("%d deliveries", *exp.Events), fmt.Sprintf("%d deliveries", len(r.Events))))
	}
	if exp.Diagnostics != nil && len(r.Diagnostics) != *exp.Diagnostics {
		add(c.fail("diagnostics", fmt.Sprintf("%d diagnostics", *exp.Diagnostics), fmt.Sprintf("%d diagnostics", len(r.Diagnostics))))
	}
	for _, h := range exp.Hops {
		add(c.checkHop(h, true))
	}
	for _, h := range exp.NoHops {
		add(c.checkHop(h, false))
	}

	// Theory order keeps failures stable across map iteration.
	for _, name := range r.Theories {
		want, ok := exp.Imports[name]
		if !ok {
			continue
		}
		add(c.checkImports(name, want))
	}
	for name := range exp.Imports {
		if !slices.Contains(r.Theories, name) {
			add(c.fail("imports", fmt.Sprintf("imports of theory %q", name), "no such theory"))
		}
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}

func (c *checker) checkShared(want []string) error {
	ids, err := c.f.termList(want)
	if err != nil {
		return c.fail("shared", fmt.Sprint(want), err.Error())
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if slices.Equal(ids, c.r.Shared) {
		return nil
	}
	return c.fail("shared", c.labels(ids), c.labels(c.r.Shared))
}

func (c *checker) checkHop(h Hop, present bool) error {
	typ := "hop"
	if !present {
		typ = "no_hop"
	}
	from, ok := c.f.index[h.From]
	if !ok {
		return c.fail(typ, fmt.Sprintf("theory %q", h.From), "no such theory")
	}
	to, ok := c.f.index[h.To]
	if !ok {
		return c.fail(typ, fmt.Sprintf("theory %q", h.To), "no such theory")
	}

	desc := fmt.Sprintf("%s -> %s", h.From, h.To)
	var found bool
	if h.A == "" {
		found = testutil.HasDir(c.r.Events, from, to)
	} else {
		a, err := c.f.term(h.A)
		if err != nil {
			return c.fail(typ, desc, err.Error())
		}
		b, err := c.f.term(h.B)
		if err != nil {
			return c.fail(typ, desc, err.Error())
		}
		desc += fmt.Sprintf(" %s = %s", c.r.Label(a), c.r.Label(b))
		found = testutil.HasPair(c.r.Events, from, to, a, b)
	}

	switch {
	case present && !found:
		return c.fail(typ, "delivery "+desc, "not found in trace")
	case !present && found:
		return c.fail(typ, "no delivery "+desc, "found in trace")
	}
	return nil
}

func (c *checker) checkImports(name string, want []ExpectedImport) error {
	got, ok := c.r.Imports[name]
	if !ok {
		return c.fail("imports", fmt.Sprintf("imports of %s", name), "theory does not share")
	}

	expected := make([]string, len(want))
	for i, w := range want {
		a, err := c.f.term(w.A)
		if err != nil {
			return c.fail("imports", name, err.Error())
		}
		b, err := c.f.term(w.B)
		if err != nil {
			return c.fail("imports", name, err.Error())
		}
		expected[i] = c.r.Label(a) + " = " + c.r.Label(b)
		if w.Because != nil {
			because := make([]string, len(w.Because))
			for j, d := range w.Because {
				because[j] = sat.Format(sat.FromDimacs(d))
			}
			expected[i] += "  because " + strings.Join(because, ", ")
		}
	}

	actual := make([]string, len(got))
	for i, eq := range got {
		actual[i] = c.r.Label(eq.A) + " = " + c.r.Label(eq.B)
		if i < len(want) && want[i].Because != nil {
			actual[i] += "  because " + strings.Join(c.r.Because(eq.Explain), ", ")
		}
	}

	if slices.Equal(expected, actual) {
		return nil
	}
	return c.fail("imports",
		fmt.Sprintf("%s imports [%s]", name, strings.Join(expected, "; ")),
		fmt.Sprintf("%s imports [%s]", name, strings.Join(actual, "; ")))
}

func (c *checker) labels(ids []term.ID) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = c.r.Label(id)
	}
	return "[" + strings.Join(out, ", ") + "]"
}
