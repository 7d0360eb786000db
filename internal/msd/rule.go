package msd

import (
	"strings"

	"github.com/GerMati/detect/internal/encoding"
)

// Literal is one attribute constraint inside a rule: at most one literal per
// attribute may appear in any rule.
type Literal struct {
	Attribute int    // attribute index in the encoded matrix
	Column    int    // bin column index in the encoded matrix
	Name      string // attribute name, for rendering
	Bin       encoding.Bin
}

// Rule is a conjunction of literals defining a subgroup. The empty rule is
// the universal subgroup (true for every row).
type Rule []Literal

// String renders the conjunction, e.g. "Race = Blue AND Age <= 18". The
// empty rule renders as "(all rows)".
func (r Rule) String() string {
	if len(r) == 0 {
		return "(all rows)"
	}

	parts := make([]string, len(r))
	for i, lit := range r {
		parts[i] = lit.Name + " " + lit.Bin.String()
	}
	return strings.Join(parts, " AND ")
}

// Members evaluates the rule over the encoded matrix and returns the
// membership vector: the AND of the member bins' columns.
func (r Rule) Members(m *encoding.Matrix) []bool {
	members := make([]bool, m.N)
	for i := range members {
		members[i] = true
	}
	for _, lit := range r {
		col := m.Cols[lit.Column]
		for i := range members {
			members[i] = members[i] && col[i]
		}
	}
	return members
}

// Result is the outcome of one MSD computation: the maximal discrepancy
// value in [0, 1] and a rule attaining it. Status reports whether optimality
// was proven or the value is a best-effort incumbent.
type Result struct {
	Value  float64
	Rule   Rule
	Status Status
}
