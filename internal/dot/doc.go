// Package dot renders equality-sharing traces and explanation DAGs as
// Graphviz documents. Output is deterministic for a given input so that it
// can be golden-tested and diffed between runs.
package dot
