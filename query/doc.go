// Package query compiles CEL expressions into predicates over raw records.
//
// Expressions see the record as the map variable r and its id as id:
//
//	f, err := query.Compile(`r.lid == "mw_sword" || r.damage > 3`)
//	matches, err := cat.FilterRaw(ctx, f.Predicate())
//
// Evaluation errors, such as a missing key, count as a non-match.
package query
