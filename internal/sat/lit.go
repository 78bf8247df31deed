package sat

import (
	"strconv"

	"github.com/go-air/gini/z"
)

// Lit is a boolean decision literal.
type Lit = z.Lit

// Var is a boolean variable.
type Var = z.Var

// Pos returns the positive literal of variable v.
func Pos(v uint32) Lit {
	return z.Var(v).Pos()
}

// Neg returns the negative literal of variable v.
func Neg(v uint32) Lit {
	return z.Var(v).Neg()
}

// FromDimacs converts a signed DIMACS integer (3, -3) into a literal.
// Zero is not a literal.
func FromDimacs(d int) Lit {
	if d == 0 {
		panic("sat: 0 is not a DIMACS literal")
	}
	if d < 0 {
		return Neg(uint32(-d))
	}
	return Pos(uint32(d))
}

// ToDimacs is the inverse of FromDimacs.
func ToDimacs(l Lit) int {
	v := int(l.Var())
	if l.IsPos() {
		return v
	}
	return -v
}

// Format renders a literal the way diagnostics print reasons: "v3" or "¬v3".
func Format(l Lit) string {
	s := "v" + strconv.FormatUint(uint64(l.Var()), 10)
	if l.IsPos() {
		return s
	}
	return "¬" + s
}
