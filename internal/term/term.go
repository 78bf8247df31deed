package term

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ID is an opaque handle into a Context. IDs are issued in creation order.
type ID uint32

// String renders the handle the way diagnostics print it ("t7").
func (id ID) String() string {
	return "t" + strconv.FormatUint(uint64(id), 10)
}

// SortID identifies an interned sort.
type SortID uint32

// Kind distinguishes term shapes.
type Kind int

const (
	KindConst Kind = iota + 1
	KindIntConst
	KindApp
	KindEq
	KindLe
	KindNot
)

// Node is the immutable payload stored for each term.
type Node struct {
	Kind  Kind
	Sort  SortID
	Name  string // Const name or App function symbol
	Value int64  // IntConst only
	Args  []ID   // App arguments, or the operands of Eq/Le/Not
}

// Context interns sorts and terms. The Int sort is always SortID 0.
//
// Not safe for concurrent use; the engine that owns it is single-threaded.
type Context struct {
	sorts     []string
	sortCache map[string]SortID
	terms     []Node
	consts    map[string]ID
}

// IntSortName is the name of the built-in integer sort.
const IntSortName = "Int"

// NewContext creates an empty context with the Int sort pre-interned.
func NewContext() *Context {
	c := &Context{
		sortCache: make(map[string]SortID),
		consts:    make(map[string]ID),
	}
	c.sorts = append(c.sorts, IntSortName)
	c.sortCache[IntSortName] = 0
	return c
}

// IntSort returns the built-in Int sort.
func (c *Context) IntSort() SortID {
	return 0
}

// DeclareSort interns an uninterpreted sort. Declaring the same name twice
// returns the same SortID.
func (c *Context) DeclareSort(name string) SortID {
	name = norm.NFC.String(name)
	if sid, ok := c.sortCache[name]; ok {
		return sid
	}
	sid := SortID(len(c.sorts))
	c.sorts = append(c.sorts, name)
	c.sortCache[name] = sid
	return sid
}

// SortName returns the name a sort was declared with.
func (c *Context) SortName(s SortID) string {
	if int(s) >= len(c.sorts) {
		panic(fmt.Sprintf("term: invalid sort %d (have %d)", s, len(c.sorts)))
	}
	return c.sorts[s]
}

func (c *Context) intern(n Node) ID {
	id := ID(len(c.terms))
	c.terms = append(c.terms, n)
	return id
}

// Const creates a named constant. Constants are not hash-consed, but the
// most recent constant with a given name is reachable through Lookup.
func (c *Context) Const(name string, sort SortID) ID {
	name = norm.NFC.String(name)
	id := c.intern(Node{Kind: KindConst, Sort: sort, Name: name})
	c.consts[name] = id
	return id
}

// IntConst creates an integer literal.
func (c *Context) IntConst(v int64) ID {
	return c.intern(Node{Kind: KindIntConst, Sort: c.IntSort(), Value: v})
}

// App creates an uninterpreted function application.
func (c *Context) App(fn string, args []ID, out SortID) ID {
	for _, a := range args {
		c.mustValid(a)
	}
	cp := make([]ID, len(args))
	copy(cp, args)
	return c.intern(Node{Kind: KindApp, Sort: out, Name: norm.NFC.String(fn), Args: cp})
}

// Eq creates the equality a = b. Booleans are not modeled as a sort.
func (c *Context) Eq(a, b ID) ID {
	c.mustValid(a)
	c.mustValid(b)
	return c.intern(Node{Kind: KindEq, Sort: c.IntSort(), Args: []ID{a, b}})
}

// Le creates a <= b.
func (c *Context) Le(a, b ID) ID {
	c.mustValid(a)
	c.mustValid(b)
	return c.intern(Node{Kind: KindLe, Sort: c.IntSort(), Args: []ID{a, b}})
}

// Not creates the negation of t.
func (c *Context) Not(t ID) ID {
	c.mustValid(t)
	return c.intern(Node{Kind: KindNot, Sort: c.IntSort(), Args: []ID{t}})
}

// Node returns the payload of a term. Panics on an ID this context never
// issued: an invalid TermRef is a programmer error.
func (c *Context) Node(id ID) Node {
	c.mustValid(id)
	return c.terms[id]
}

// Valid reports whether id was issued by this context.
func (c *Context) Valid(id ID) bool {
	return int(id) < len(c.terms)
}

// Len returns the number of interned terms.
func (c *Context) Len() int {
	return len(c.terms)
}

// Lookup returns the constant registered under name.
func (c *Context) Lookup(name string) (ID, bool) {
	id, ok := c.consts[norm.NFC.String(name)]
	return id, ok
}

// Label renders a term for humans, e.g. "f(a, 3)" or "(x <= y)".
func (c *Context) Label(id ID) string {
	var sb strings.Builder
	c.writeLabel(&sb, id)
	return sb.String()
}

func (c *Context) writeLabel(sb *strings.Builder, id ID) {
	n := c.Node(id)
	switch n.Kind {
	case KindConst:
		sb.WriteString(n.Name)
	case KindIntConst:
		sb.WriteString(strconv.FormatInt(n.Value, 10))
	case KindApp:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			c.writeLabel(sb, a)
		}
		sb.WriteByte(')')
	case KindEq, KindLe:
		op := " = "
		if n.Kind == KindLe {
			op = " <= "
		}
		sb.WriteByte('(')
		c.writeLabel(sb, n.Args[0])
		sb.WriteString(op)
		c.writeLabel(sb, n.Args[1])
		sb.WriteByte(')')
	case KindNot:
		sb.WriteString("not ")
		c.writeLabel(sb, n.Args[0])
	}
}

func (c *Context) mustValid(id ID) {
	if int(id) >= len(c.terms) {
		panic(fmt.Sprintf("term: invalid term %s (have %d terms)", id, len(c.terms)))
	}
}
