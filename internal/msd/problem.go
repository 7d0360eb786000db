package msd

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/GerMati/detect/internal/encoding"
)

var (
	ErrEmptySide      = errors.New("distribution side has no rows")
	ErrWeightMismatch = errors.New("weight vector length does not match matrix rows")
)

// Problem is the discrete optimization instance handed to a Solver: binary
// selection variables (one per bin column of the matrix), at-most-one-per-
// attribute groups, and the two per-row weight vectors of the distribution
// pair. Pos and Neg each sum to 1.
type Problem struct {
	Matrix *encoding.Matrix
	Pos    []float64
	Neg    []float64
}

// NewProblem validates the weight vectors against the matrix.
func NewProblem(m *encoding.Matrix, pos, neg []float64) (*Problem, error) {
	if len(pos) != m.N || len(neg) != m.N {
		return nil, ErrWeightMismatch
	}
	return &Problem{Matrix: m, Pos: pos, Neg: neg}, nil
}

// SideWeights turns a side-membership mask into a normalized weight vector:
// every row on the side gets weight 1/count, every other row 0. An empty
// side leaves the discrepancy objective undefined and is an error.
func SideWeights(side []bool) ([]float64, error) {
	count := 0
	for _, in := range side {
		if in {
			count++
		}
	}
	if count == 0 {
		return nil, ErrEmptySide
	}

	w := make([]float64, len(side))
	for i, in := range side {
		if in {
			w[i] = 1
		}
	}
	floats.Scale(1/float64(count), w)
	return w, nil
}

// Discrepancy computes the objective for a membership vector: the absolute
// difference between the subgroup's share of the positive side and its share
// of the negative side.
func Discrepancy(members []bool, pos, neg []float64) (float64, error) {
	if len(members) != len(pos) || len(members) != len(neg) {
		return 0, fmt.Errorf("%w: %d members, %d/%d weights", ErrWeightMismatch, len(members), len(pos), len(neg))
	}

	var p, n float64
	for i, in := range members {
		if in {
			p += pos[i]
			n += neg[i]
		}
	}
	return math.Abs(p - n), nil
}

// Evaluate computes the objective of a rule against the problem.
func (p *Problem) Evaluate(r Rule) (float64, error) {
	return Discrepancy(r.Members(p.Matrix), p.Pos, p.Neg)
}
