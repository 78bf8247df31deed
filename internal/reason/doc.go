// Package reason implements the explanation store: an append-only arena of
// justifications addressed by integer handles.
//
// A node is either a leaf wrapping one boolean decision literal or an AND
// over previously created nodes. Push rejects any child handle that is not
// strictly older than the node being created, so the arena is a DAG by
// construction and every traversal terminates.
//
// Nothing is ever removed. Handles stay valid for the arena's lifetime and
// are never reused.
package reason
