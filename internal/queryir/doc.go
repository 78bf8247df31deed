// Package queryir defines filters over stored equality-sharing deliveries.
//
// A filter is a tree of predicates on the columns of one delivery: its
// epoch, exporting and importing theory, and the two shared terms.
// Filters are backend-neutral; package querysql compiles them to SQLite.
//
//	queryir.And{Predicates: []queryir.Predicate{
//	    queryir.Involves{Theory: 1},
//	    queryir.Range{Field: queryir.FieldEpoch, Lo: 0, Hi: 3},
//	}}
//
// selects every delivery exported or imported by theory 1 during epochs
// 0 through 3. A nil filter selects everything.
package queryir
