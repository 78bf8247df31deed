// Package term provides the term and sort interning store shared by the
// combination engine and the theories.
//
// The store is deliberately small. Terms are appended once and never
// mutated, and an ID is simply the term's position in the store, so IDs
// are totally ordered and cheap to hash. Everything above this package
// treats an ID as an opaque handle.
//
// Symbol names (sorts, constants, function symbols) are NFC-normalized at
// interning time so that visually identical names coming from different
// front ends resolve to the same symbol.
package term
