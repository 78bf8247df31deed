// Package sat holds the boolean side of the solver as seen by the
// combination core: the literal type that explanation leaves wrap, and the
// narrow kernel interface the check-sat driver talks to.
//
// Literals are gini literals (github.com/go-air/gini/z), so a GiniKernel can
// consume them without translation. Variable 0 is reserved by gini; the
// first usable variable is 1.
package sat
