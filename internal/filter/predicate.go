// Package filter turns optional search parameters into an ordered list of
// column predicates and renders them as a SQL WHERE clause.
package filter

import (
	"strings"
)

// Op is the comparison a predicate applies.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
)

// Predicate constrains one column.
type Predicate struct {
	Column string
	Op     Op
	Value  any
}

// Eq builds an equality predicate.
func Eq(column string, value any) Predicate {
	return Predicate{Column: column, Op: OpEq, Value: value}
}

// Gte builds an inclusive lower bound.
func Gte(column string, value any) Predicate {
	return Predicate{Column: column, Op: OpGte, Value: value}
}

// Where renders preds as a conjunction qualified with alias (which may be
// empty). It returns "" and no args when preds is empty. Columns are
// trusted identifiers; values are always bound.
func Where(alias string, preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}

	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}

	clauses := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		clauses = append(clauses, prefix+p.Column+" "+string(p.Op)+" ?")
		args = append(args, p.Value)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
