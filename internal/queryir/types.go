package queryir

// Field names one column of a stored delivery.
type Field string

const (
	FieldEpoch Field = "epoch"
	FieldFrom  Field = "from"
	FieldTo    Field = "to"
	FieldTermA Field = "term_a"
	FieldTermB Field = "term_b"
)

// Fields lists every field a predicate may reference.
var Fields = []Field{FieldEpoch, FieldFrom, FieldTo, FieldTermA, FieldTermB}

// Predicate is a condition on one delivery.
//
// This is a sealed interface; only types in this package implement it, so
// backends can switch over it exhaustively.
type Predicate interface {
	predicateNode()
}

// Equals holds when Field equals Value.
type Equals struct {
	Field Field
	Value int64
}

func (Equals) predicateNode() {}

// Range holds when Lo <= Field <= Hi.
type Range struct {
	Field  Field
	Lo, Hi int64
}

func (Range) predicateNode() {}

// Involves holds when the delivery was exported or imported by Theory.
type Involves struct {
	Theory int64
}

func (Involves) predicateNode() {}

// Mentions holds when either shared term of the delivery is Term.
type Mentions struct {
	Term int64
}

func (Mentions) predicateNode() {}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or holds when some predicate holds. An empty Or is rejected by Validate.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not holds when Predicate does not.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}
