package models

import (
	"math"

	"casetrack/internal/apperr"
)

// Assignment is one column to overwrite in a partial update.
type Assignment struct {
	Column string
	Value  any
}

// fieldUpdate is one entry of a field mask: the column it targets, whether
// the payload carried it, and how to check the supplied value.
type fieldUpdate struct {
	column string
	set    bool
	null   bool
	value  any
	check  func() error
}

func intUpdate(column string, o Optional[int], lo, hi int) fieldUpdate {
	return fieldUpdate{
		column: column,
		set:    o.Set,
		null:   o.Null,
		value:  o.Value,
		check: func() error {
			if o.Value < lo || o.Value > hi {
				if hi == math.MaxInt {
					return apperr.InvalidArgument("%s must be greater than or equal to %d", column, lo)
				}
				return apperr.InvalidArgument("%s must be between %d and %d", column, lo, hi)
			}
			return nil
		},
	}
}

func boolUpdate(column string, o Optional[bool]) fieldUpdate {
	return fieldUpdate{column: column, set: o.Set, null: o.Null, value: o.Value}
}

// collect validates every field present in mask and returns the assignments
// in mask order. Nothing is returned when any field fails.
func collect(mask []fieldUpdate) ([]Assignment, error) {
	var sets []Assignment
	for _, f := range mask {
		if !f.set {
			continue
		}
		if f.null {
			return nil, apperr.InvalidArgument("%s cannot be null", f.column)
		}
		if f.check != nil {
			if err := f.check(); err != nil {
				return nil, err
			}
		}
		sets = append(sets, Assignment{Column: f.column, Value: f.value})
	}
	return sets, nil
}
