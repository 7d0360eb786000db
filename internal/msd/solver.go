package msd

import (
	"context"
	"errors"
)

var (
	// ErrBudgetExceeded reports that the solver could not certify an
	// optimum within its resource budget and no usable incumbent was
	// requested. Distinct from a zero-valued Result, which is a legitimate
	// "no bias found" finding.
	ErrBudgetExceeded = errors.New("solver resource budget exceeded before proving optimality")
)

// Status reports the certification level of a solution.
type Status int

const (
	// StatusOptimal means the solution is a proven maximizer.
	StatusOptimal Status = iota
	// StatusFeasible means the solution is the best incumbent found before
	// the resource budget ran out; it may be suboptimal.
	StatusFeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	}
	return "unknown"
}

// Solution is a solver's answer: the selected bin columns (at most one per
// attribute group) and the objective value they attain.
type Solution struct {
	Selected []int
	Value    float64
	Status   Status
}

// Solver is the exact discrete optimizer behind the MSD search. The
// correctness contract is that a StatusOptimal solution maximizes the
// discrepancy objective over all selections respecting the at-most-one-bin-
// per-attribute groups; which backend proves it is pluggable.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
