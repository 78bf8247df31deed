package dot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaucouleur/decision/internal/reason"
	"github.com/vaucouleur/decision/internal/sat"
	"github.com/vaucouleur/decision/internal/term"
	"github.com/vaucouleur/decision/internal/theory"
	"github.com/vaucouleur/decision/internal/trace"
)

var theoryNames = []string{"UF", "DL"}

func nameOf(i theory.Index) string { return theoryNames[i] }

func labelOf(t term.ID) string {
	return map[term.ID]string{10: "x", 11: "y", 12: "z"}[t]
}

func sampleArena() (*reason.Arena, reason.ID, reason.ID) {
	a := reason.NewArena()
	l1 := a.Lit(sat.Pos(1))
	l2 := a.Lit(sat.Neg(2))
	both := a.And(l1, l2)
	return a, l1, both
}

func TestEqShare(t *testing.T) {
	arena, l1, both := sampleArena()
	events := []trace.Event{
		{Epoch: 0, From: 0, To: 1, A: 10, B: 11, Explain: both},
		{Epoch: 0, From: 0, To: 1, A: 11, B: 10, Explain: both},
		{Epoch: 0, From: 1, To: 0, A: 11, B: 12, Explain: l1},
	}

	got := EqShare(events, arena, nameOf, labelOf, DefaultEqLimits())

	want := `digraph EqShare {
  rankdir=LR;
  node [fontname="Helvetica"];
  t0 -> t1 [label="UF→DL @0\nv1,¬v2"];
  t1 -> t2 [label="DL→UF @0\nv1"];
  t0 [shape=ellipse,label="x"];
  t1 [shape=ellipse,label="y"];
  t2 [shape=ellipse,label="z"];
}
`
	assert.Equal(t, want, got)
}

func TestEqShare_Limits(t *testing.T) {
	arena, _, both := sampleArena()
	events := []trace.Event{
		{Epoch: 1, From: 0, To: 1, A: 10, B: 11, Explain: both},
		{Epoch: 1, From: 1, To: 0, A: 10, B: 11, Explain: both},
	}

	got := EqShare(events, arena, nameOf, labelOf, EqLimits{MaxEvents: 1, MaxReasonLits: 1, IncludeReasonNodes: true})

	want := `digraph EqShare {
  rankdir=LR;
  node [fontname="Helvetica"];
  t0 -> t1 [label="UF→DL @1\nv1,..."];
  r2 [shape=box,style=dashed,label="reason 2"];
  t0 -> r2 [style=dotted,arrowhead=none];
  r2 -> t1 [style=dotted,arrowhead=none];
  t0 [shape=ellipse,label="x"];
  t1 [shape=ellipse,label="y"];
  truncated [shape=note,label="TRUNCATED: events=2 max_events=1"];
}
`
	assert.Equal(t, want, got)
}

func TestEqShare_NilArenaAndLabels(t *testing.T) {
	events := []trace.Event{{Epoch: 3, From: 1, To: 0, A: 7, B: 8}}

	got := EqShare(events, nil, nameOf, nil, DefaultEqLimits())

	assert.Contains(t, got, `t0 -> t1 [label="DL→UF @3"];`)
	assert.Contains(t, got, `t0 [shape=ellipse,label="t7"];`)
}

func TestEqShare_EscapesQuotes(t *testing.T) {
	events := []trace.Event{{From: 0, To: 1, A: 1, B: 2}}
	labels := func(term.ID) string { return `say "hi"` }

	got := EqShare(events, nil, nameOf, labels, DefaultEqLimits())

	assert.Contains(t, got, `label="say \"hi\""`)
}

func TestEqShare_EscapesBackslashes(t *testing.T) {
	arena, l1, _ := sampleArena()
	events := []trace.Event{{Epoch: 1, From: 0, To: 1, A: 1, B: 2, Explain: l1}}
	labels := func(term.ID) string { return `a\b` }
	names := func(theory.Index) string { return `U\F` }

	got := EqShare(events, arena, names, labels, DefaultEqLimits())

	assert.Contains(t, got, `label="a\\b"`)
	assert.Contains(t, got, `[label="U\\F→U\\F @1\nv1"];`)
}

func TestReason(t *testing.T) {
	a := reason.NewArena()
	l1 := a.Lit(sat.Pos(1))
	l2 := a.Lit(sat.Neg(2))
	inner := a.And(l1, l2)
	root := a.And(inner, l1)

	got := Reason(a, root, DefaultReasonLimits())

	want := `digraph Reason {
  rankdir=LR;
  node [fontname="Helvetica"];
  r0 [shape=box,label="AND (2)"];
  r1 [shape=box,label="AND (2)"];
  r2 [shape=ellipse,label="v1"];
  r3 [shape=ellipse,label="¬v2"];
  r0 -> r1;
  r0 -> r2;
  r1 -> r2;
  r1 -> r3;
}
`
	assert.Equal(t, want, got)
}

func TestReason_NodeLimit(t *testing.T) {
	a := reason.NewArena()
	l1 := a.Lit(sat.Pos(1))
	l2 := a.Lit(sat.Neg(2))
	inner := a.And(l1, l2)
	root := a.And(inner, l1)

	got := Reason(a, root, ReasonLimits{MaxNodes: 2})

	assert.Contains(t, got, "r0 -> r1;")
	assert.NotContains(t, got, "r2")
}

func TestReason_Leaf(t *testing.T) {
	a := reason.NewArena()
	l := a.Lit(sat.Neg(4))

	got := Reason(a, l, DefaultReasonLimits())

	assert.Contains(t, got, `r0 [shape=ellipse,label="¬v4"];`)
	assert.NotContains(t, got, "->")
}
