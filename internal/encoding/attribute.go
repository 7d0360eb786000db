package encoding

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNoCutPoints = errors.New("continuous attribute has no cut points")
	ErrNotNumeric  = errors.New("value is not numeric")
	ErrNoValues    = errors.New("attribute has no observed values")
)

// Kind distinguishes categorical from continuous attributes.
type Kind int

const (
	Categorical Kind = iota
	Continuous
)

// Attribute is a named protected column together with its bin catalogue:
// the finite, ordered list of atomic predicates the search space is built
// from.
type Attribute struct {
	Name string
	Kind Kind
	Bins []Bin
}

// CategoricalAttribute builds the catalogue for a categorical column: one
// equality bin per distinct observed value, in first-observed order. Empty
// cells map to the Missing sentinel category.
func CategoricalAttribute(name string, cells []string) (Attribute, error) {
	if len(cells) == 0 {
		return Attribute{}, fmt.Errorf("%w: %q", ErrNoValues, name)
	}

	seen := make(map[string]bool, 8)
	bins := make([]Bin, 0, 8)
	for _, cell := range cells {
		v := normalizeCell(cell)
		if seen[v] {
			continue
		}
		seen[v] = true
		bins = append(bins, Bin{Op: OpEqual, Category: v})
	}

	return Attribute{Name: name, Kind: Categorical, Bins: bins}, nil
}

// ContinuousAttribute builds the catalogue for a continuous column from its
// cut points: cuts c1 < ... < ck yield the bins (-inf, c1], (c1, c2], ...,
// (ck, +inf). Cut points are sorted and deduplicated. A continuous attribute
// without cut points cannot be quantized and is a configuration error.
func ContinuousAttribute(name string, cuts []float64) (Attribute, error) {
	if len(cuts) == 0 {
		return Attribute{}, fmt.Errorf("%w: %q", ErrNoCutPoints, name)
	}

	sorted := make([]float64, len(cuts))
	copy(sorted, cuts)
	sort.Float64s(sorted)

	dedup := sorted[:1]
	for _, c := range sorted[1:] {
		if c != dedup[len(dedup)-1] {
			dedup = append(dedup, c)
		}
	}

	bins := make([]Bin, 0, len(dedup)+1)
	bins = append(bins, Bin{Op: OpLessEq, Hi: dedup[0]})
	for i := 1; i < len(dedup); i++ {
		bins = append(bins, Bin{Op: OpBetween, Lo: dedup[i-1], Hi: dedup[i]})
	}
	bins = append(bins, Bin{Op: OpGreater, Lo: dedup[len(dedup)-1]})

	return Attribute{Name: name, Kind: Continuous, Bins: bins}, nil
}
