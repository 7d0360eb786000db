package msd

import (
	"context"
	"fmt"
	"math"
)

// BranchBound is the built-in exact solver: a depth-first branch-and-bound
// over the predicate space. Each search node is a partial conjunction with
// at most one bin chosen per attribute; children either skip the next
// attribute or intersect the subgroup with one of its bins. Subtrees are cut
// with a refinement bound, so the incumbent at exhaustion is a proven
// maximizer.
type BranchBound struct {
	// BestEffort downgrades a budget overrun from an error into a
	// StatusFeasible solution carrying the best incumbent found.
	BestEffort bool
	// CheckEvery is the node interval between context deadline checks.
	CheckEvery int
}

// NewBranchBound returns a solver with default settings.
func NewBranchBound() *BranchBound {
	return &BranchBound{CheckEvery: 1024}
}

// Solve explores all rules respecting the at-most-one-bin-per-attribute
// groups and returns the discrepancy maximizer. The search order is fixed by
// attribute and bin order, so results are deterministic for a fixed problem.
func (s *BranchBound) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	n := p.Matrix.N

	// Per-row refinement gains: any refinement of a member set M has
	// signed difference at most sum of gainPos over M (and symmetrically
	// for the other direction).
	gainPos := make([]float64, n)
	gainNeg := make([]float64, n)
	var posTotal, negTotal, boundPos, boundNeg float64
	for i := 0; i < n; i++ {
		d := p.Pos[i] - p.Neg[i]
		if d > 0 {
			gainPos[i] = d
		} else {
			gainNeg[i] = -d
		}
		posTotal += p.Pos[i]
		negTotal += p.Neg[i]
		boundPos += gainPos[i]
		boundNeg += gainNeg[i]
	}

	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	checkEvery := s.CheckEvery
	if checkEvery <= 0 {
		checkEvery = 1024
	}

	search := &bbSearch{
		p:          p,
		gainPos:    gainPos,
		gainNeg:    gainNeg,
		checkEvery: checkEvery,
		ctx:        ctx,
		// The empty rule (universal subgroup) seeds the incumbent; only a
		// strict improvement replaces it.
		best: &Solution{Value: math.Abs(posTotal - negTotal)},
	}
	search.dfs(0, rows, posTotal, negTotal, boundPos, boundNeg)

	if search.err != nil {
		if s.BestEffort {
			search.best.Status = StatusFeasible
			return search.best, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBudgetExceeded, search.err)
	}

	search.best.Status = StatusOptimal
	return search.best, nil
}

type bbSearch struct {
	p          *Problem
	gainPos    []float64
	gainNeg    []float64
	best       *Solution
	selected   []int
	nodes      int
	checkEvery int
	ctx        context.Context
	err        error
}

func (s *bbSearch) dfs(attr int, rows []int, posSum, negSum, boundPos, boundNeg float64) {
	if s.err != nil {
		return
	}
	s.nodes++
	if s.nodes%s.checkEvery == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return
		}
	}

	if value := math.Abs(posSum - negSum); len(s.selected) > 0 && value > s.best.Value {
		s.best.Value = value
		s.best.Selected = append([]int(nil), s.selected...)
	}

	groups := s.p.Matrix.Groups
	if attr == len(groups) {
		return
	}

	// Every descendant refines the current member set, so its value is
	// capped by the directional gain sums.
	if math.Max(boundPos, boundNeg) <= s.best.Value {
		return
	}

	s.dfs(attr+1, rows, posSum, negSum, boundPos, boundNeg)

	for _, col := range groups[attr] {
		member := s.p.Matrix.Cols[col]

		sub := make([]int, 0, len(rows))
		var p, n, bp, bn float64
		for _, i := range rows {
			if member[i] {
				sub = append(sub, i)
				p += s.p.Pos[i]
				n += s.p.Neg[i]
				bp += s.gainPos[i]
				bn += s.gainNeg[i]
			}
		}

		// A subgroup matching zero rows has discrepancy 0 on both sides
		// and is always dominated.
		if len(sub) == 0 {
			continue
		}

		s.selected = append(s.selected, col)
		s.dfs(attr+1, sub, p, n, bp, bn)
		s.selected = s.selected[:len(s.selected)-1]
		if s.err != nil {
			return
		}
	}
}

// RuleOf converts a solver selection back into a Rule with attribute names
// and bins resolved against the problem's matrix.
func (p *Problem) RuleOf(selected []int) Rule {
	rule := make(Rule, 0, len(selected))
	for _, col := range selected {
		ai := p.Matrix.ColAttr[col]
		rule = append(rule, Literal{
			Attribute: ai,
			Column:    col,
			Name:      p.Matrix.Attributes[ai].Name,
			Bin:       p.Matrix.Bins[col],
		})
	}
	return rule
}
