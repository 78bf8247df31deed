// Package querysql compiles delivery filters to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/vaucouleur/decision/internal/queryir"
)

// EventColumns is the column list every compiled query selects, in scan
// order.
const EventColumns = "seq, epoch, from_theory, to_theory, term_a, term_b, explain, label_a, label_b"

// columns maps filter fields to eqshare_events columns.
var columns = map[queryir.Field]string{
	queryir.FieldEpoch: "epoch",
	queryir.FieldFrom:  "from_theory",
	queryir.FieldTo:    "to_theory",
	queryir.FieldTermA: "term_a",
	queryir.FieldTermB: "term_b",
}

// CompileEvents returns the query selecting the deliveries of runID that
// satisfy filter, together with its parameters.
//
// Values are never interpolated; every one becomes a ? placeholder. Rows
// are always ordered by seq so results are deterministic.
func CompileEvents(runID string, filter queryir.Predicate) (string, []any, error) {
	if err := queryir.Validate(filter); err != nil {
		return "", nil, err
	}

	where := "run_id = ?"
	params := []any{runID}
	if filter != nil {
		sql, fp, err := compilePredicate(filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND " + sql
		params = append(params, fp...)
	}

	sql := fmt.Sprintf("SELECT %s FROM eqshare_events WHERE %s ORDER BY seq ASC", EventColumns, where)
	return sql, params, nil
}

// compilePredicate returns a parenthesized fragment wherever precedence
// could matter.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return columns[pred.Field] + " = ?", []any{pred.Value}, nil
	case *queryir.Equals:
		return compilePredicate(*pred)
	case queryir.Range:
		return columns[pred.Field] + " BETWEEN ? AND ?", []any{pred.Lo, pred.Hi}, nil
	case *queryir.Range:
		return compilePredicate(*pred)
	case queryir.Involves:
		return "(from_theory = ? OR to_theory = ?)", []any{pred.Theory, pred.Theory}, nil
	case *queryir.Involves:
		return compilePredicate(*pred)
	case queryir.Mentions:
		return "(term_a = ? OR term_b = ?)", []any{pred.Term, pred.Term}, nil
	case *queryir.Mentions:
		return compilePredicate(*pred)
	case queryir.And:
		return compileJunction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.And:
		return compilePredicate(*pred)
	case queryir.Or:
		return compileJunction(pred.Predicates, " OR ", "1 = 0")
	case *queryir.Or:
		return compilePredicate(*pred)
	case queryir.Not:
		sql, params, err := compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case *queryir.Not:
		return compilePredicate(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileJunction(preds []queryir.Predicate, op, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	if len(preds) == 1 {
		return compilePredicate(preds[0])
	}

	parts := make([]string, len(preds))
	var params []any
	for i, p := range preds {
		sql, pp, err := compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts[i] = sql
		params = append(params, pp...)
	}
	return "(" + strings.Join(parts, op) + ")", params, nil
}
