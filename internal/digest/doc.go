// Package digest computes content-addressed fingerprints of combination
// runs.
//
// Values are serialized as RFC 8785 canonical JSON: object keys sorted by
// UTF-16 code units, strings NFC-normalized, no insignificant whitespace.
// Floats and null are rejected so the encoding has exactly one form. The
// canonical bytes are then hashed with SHA-256 under a versioned domain
// prefix.
//
// Two runs of the same scenario produce the same digest if and only if
// they made the same deliveries with the same explanations, which makes
// the digest a cheap determinism check across processes and machines.
package digest
