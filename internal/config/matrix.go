package config

import (
	"fmt"
	"slices"

	"github.com/vaucouleur/decision/internal/theory"
)

// MaxTheories bounds the registration list; the shared-term oracle keeps
// one owner bit per theory in a uint64.
const MaxTheories = 64

// Matrix is a resolved pair policy over a fixed number of theories.
// The zero value of an entry means "allowed".
type Matrix struct {
	n    int
	deny []bool
}

// NewMatrix returns a matrix over n theories with every pair allowed.
func NewMatrix(n int) (Matrix, error) {
	if n > MaxTheories {
		return Matrix{}, &Error{
			Code:    ErrCodeTooManyTheories,
			Message: fmt.Sprintf("%d theories registered, at most %d supported", n, MaxTheories),
		}
	}
	return Matrix{n: n, deny: make([]bool, n*n)}, nil
}

// Len returns the number of theories the matrix covers.
func (m Matrix) Len() int {
	return m.n
}

// Clone returns a matrix with the same decisions that shares no storage
// with m.
func (m Matrix) Clone() Matrix {
	return Matrix{n: m.n, deny: slices.Clone(m.deny)}
}

// Allowed reports whether equalities exported by from may be imported by
// to. Self-pairs are reported as allowed here; the round driver skips
// them before consulting the policy.
func (m Matrix) Allowed(from, to theory.Index) bool {
	if int(from) >= m.n || int(to) >= m.n || from < 0 || to < 0 {
		panic(fmt.Sprintf("config: pair (%d,%d) outside %d theories", from, to, m.n))
	}
	return !m.deny[int(from)*m.n+int(to)]
}

// Set records a rule for the pair (from, to).
func (m Matrix) Set(from, to theory.Index, allow bool) error {
	if from < 0 || int(from) >= m.n || to < 0 || int(to) >= m.n {
		return &Error{
			Code:    ErrCodeIndexOutOfRange,
			Field:   "pair",
			Message: fmt.Sprintf("(%d,%d) with %d theories registered", from, to, m.n),
		}
	}
	if from == to {
		return &Error{
			Code:    ErrCodeSelfPair,
			Field:   "pair",
			Message: fmt.Sprintf("theory %d cannot be both exporter and importer", from),
		}
	}
	m.deny[int(from)*m.n+int(to)] = !allow
	return nil
}

// Resolve checks p against the registered theory names and returns the
// resulting matrix. Names must be unique.
func (p SharingPolicy) Resolve(names []string) (Matrix, error) {
	m, err := NewMatrix(len(names))
	if err != nil {
		return Matrix{}, err
	}

	index := make(map[string]theory.Index, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return Matrix{}, &Error{
				Code:    ErrCodeDuplicateTheory,
				Field:   "theories",
				Message: fmt.Sprintf("theory name %q registered more than once", name),
			}
		}
		index[name] = theory.Index(i)
	}

	for i, r := range p.Rules {
		from, ok := index[r.From]
		if !ok {
			return Matrix{}, &Error{
				Code:    ErrCodeUnknownTheory,
				Field:   ruleField(i) + ".from",
				Message: fmt.Sprintf("no registered theory named %q", r.From),
			}
		}
		to, ok := index[r.To]
		if !ok {
			return Matrix{}, &Error{
				Code:    ErrCodeUnknownTheory,
				Field:   ruleField(i) + ".to",
				Message: fmt.Sprintf("no registered theory named %q", r.To),
			}
		}
		if from == to {
			return Matrix{}, &Error{
				Code:    ErrCodeSelfPair,
				Field:   ruleField(i),
				Message: fmt.Sprintf("%q cannot be both exporter and importer", r.From),
			}
		}
		m.deny[int(from)*m.n+int(to)] = !r.Allow
	}
	return m, nil
}
