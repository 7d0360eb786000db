package encoding

import (
	"fmt"
	"strconv"

	"github.com/GerMati/detect/internal/dataset"
)

// Matrix is the encoded sample matrix: one boolean membership column per
// bin, grouped by attribute, over the N rows of the source dataset. Built
// once per encoder invocation and immutable afterwards.
type Matrix struct {
	Attributes []Attribute
	Bins       []Bin   // flattened catalogue, aligned with Cols
	ColAttr    []int   // column index -> attribute index
	Groups     [][]int // attribute index -> its column indices
	Cols       [][]bool
	N          int
}

// Encode evaluates every bin of every attribute against the dataset and
// returns the membership matrix. All attributes must name existing columns;
// continuous columns must parse as numbers.
func Encode(ds *dataset.Dataset, attrs []Attribute) (*Matrix, error) {
	m := &Matrix{
		Attributes: attrs,
		Groups:     make([][]int, len(attrs)),
		N:          ds.Len(),
	}

	for ai, attr := range attrs {
		cells, err := ds.Column(attr.Name)
		if err != nil {
			return nil, err
		}

		var values []float64
		if attr.Kind == Continuous {
			values = make([]float64, len(cells))
			for i, cell := range cells {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: column %q row %d value %q", ErrNotNumeric, attr.Name, i, cell)
				}
				values[i] = v
			}
		}

		for _, bin := range attr.Bins {
			col := make([]bool, ds.Len())
			if attr.Kind == Continuous {
				for i, v := range values {
					col[i] = bin.matchValue(v)
				}
			} else {
				for i, cell := range cells {
					col[i] = normalizeCell(cell) == bin.Category
				}
			}

			m.Groups[ai] = append(m.Groups[ai], len(m.Cols))
			m.ColAttr = append(m.ColAttr, ai)
			m.Bins = append(m.Bins, bin)
			m.Cols = append(m.Cols, col)
		}
	}

	return m, nil
}

// BinCount returns the total number of bins across all attributes.
func (m *Matrix) BinCount() int {
	return len(m.Bins)
}
