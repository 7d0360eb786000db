package encoding

import (
	"fmt"
	"strconv"
)

// Op identifies the predicate form of a Bin.
type Op int

const (
	// OpEqual matches a categorical value exactly.
	OpEqual Op = iota
	// OpLessEq matches numeric values v <= Hi.
	OpLessEq
	// OpGreater matches numeric values v > Lo.
	OpGreater
	// OpBetween matches numeric values in the half-open interval (Lo, Hi].
	OpBetween
)

// Missing is the sentinel category for empty cells. Missing values form
// their own bin; they are never dropped.
const Missing = "<missing>"

// Bin is one atomic predicate over a single attribute: an equality test for
// categorical values or a threshold/interval test for binned continuous
// values. Bins are immutable once constructed.
type Bin struct {
	Op       Op
	Category string  // OpEqual only
	Lo       float64 // OpGreater, OpBetween
	Hi       float64 // OpLessEq, OpBetween
}

// Match evaluates the bin against a raw cell. Threshold bins require a
// numeric cell.
func (b Bin) Match(cell string) (bool, error) {
	if b.Op == OpEqual {
		return normalizeCell(cell) == b.Category, nil
	}

	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrNotNumeric, cell)
	}
	return b.matchValue(v), nil
}

func (b Bin) matchValue(v float64) bool {
	switch b.Op {
	case OpLessEq:
		return v <= b.Hi
	case OpGreater:
		return v > b.Lo
	case OpBetween:
		return v > b.Lo && v <= b.Hi
	}
	return false
}

// String renders the predicate without its attribute name, e.g. "= Blue" or
// "in (18, 30]".
func (b Bin) String() string {
	switch b.Op {
	case OpEqual:
		return "= " + b.Category
	case OpLessEq:
		return fmt.Sprintf("<= %g", b.Hi)
	case OpGreater:
		return fmt.Sprintf("> %g", b.Lo)
	case OpBetween:
		return fmt.Sprintf("in (%g, %g]", b.Lo, b.Hi)
	}
	return "invalid"
}

func normalizeCell(cell string) string {
	if cell == "" {
		return Missing
	}
	return cell
}
