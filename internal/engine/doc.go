// Package engine drives equality sharing between registered theories.
//
// ARCHITECTURE:
//
// Round Driver:
// A round is one synchronous call to Engine.Round. It runs, in order:
//  1. Refresh the shared-term oracle if the atom table grew or a theory
//     reported new endpoints.
//  2. Export: every sharing theory, in registration order, is asked for the
//     equalities it knows over the shared terms. All exports complete
//     before any import starts.
//  3. Broadcast: each exported equality, in collected order, is offered to
//     every other sharing theory in registration order. Pairs blocked by
//     the policy are skipped without a trace entry or diagnostic.
//  4. Diagnostics: the first delivery of each (exporter, importer,
//     unordered pair, epoch) key is recorded. Diagnostics never affect
//     delivery.
//  5. The round epoch advances (wrapping).
//
// The engine holds no locks. Hosts serialize access; a round never
// suspends, performs no I/O and cannot be cancelled halfway.
//
// CRITICAL PATTERNS:
//
// Determinism:
// Given identical inputs and identical theory behavior, the sequence of
// import calls, their arguments and the trace are identical across runs.
// Map iteration never decides an order.
//
// Contract violations:
// Invalid theory indexes, explanation handles and re-entrant rounds panic.
// Policy misconfiguration is an error returned from New.
package engine
