package msd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/GerMati/detect/internal/dataset"
	"github.com/GerMati/detect/internal/encoding"
)

// buildProblem encodes categorical columns over the given rows and labels
// and wraps them into a Problem.
func buildProblem(t *testing.T, columns []string, rows [][]string, positive []bool) *Problem {
	t.Helper()

	ds, err := dataset.New(columns, rows)
	if err != nil {
		t.Fatalf("failed to build dataset: %v", err)
	}

	attrs := make([]encoding.Attribute, len(columns))
	for i, name := range columns {
		cells, err := ds.Column(name)
		if err != nil {
			t.Fatalf("failed to read column %q: %v", name, err)
		}
		attrs[i], err = encoding.CategoricalAttribute(name, cells)
		if err != nil {
			t.Fatalf("failed to build attribute %q: %v", name, err)
		}
	}

	matrix, err := encoding.Encode(ds, attrs)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	negative := make([]bool, len(positive))
	for i, in := range positive {
		negative[i] = !in
	}

	pos, err := SideWeights(positive)
	if err != nil {
		t.Fatalf("failed to build positive weights: %v", err)
	}
	neg, err := SideWeights(negative)
	if err != nil {
		t.Fatalf("failed to build negative weights: %v", err)
	}

	problem, err := NewProblem(matrix, pos, neg)
	if err != nil {
		t.Fatalf("failed to build problem: %v", err)
	}
	return problem
}

// repeat appends n copies of a (race, age) row with the given label.
func repeat(rows *[][]string, positive *[]bool, n int, race, age string, label bool) {
	for i := 0; i < n; i++ {
		*rows = append(*rows, []string{race, age})
		*positive = append(*positive, label)
	}
}

// parityInstance builds an instance where overall demographic parity holds
// on both Race and Age marginals, but Race=Blue AND Age=0-18 carries an
// 11.1 percentage-point gap between the label classes.
func parityInstance(t *testing.T) *Problem {
	var rows [][]string
	var positive []bool

	// Positive side: 9 rows.
	repeat(&rows, &positive, 2, "Blue", "0-18", true)
	repeat(&rows, &positive, 1, "Blue", "30-45", true)
	repeat(&rows, &positive, 1, "Green", "18-30", true)
	repeat(&rows, &positive, 1, "Green", "30-45", true)
	repeat(&rows, &positive, 1, "Green", "60+", true)
	repeat(&rows, &positive, 1, "Purple", "0-18", true)
	repeat(&rows, &positive, 2, "Purple", "45-60", true)

	// Negative side: 18 rows with identical Race and Age marginals.
	repeat(&rows, &positive, 2, "Blue", "0-18", false)
	repeat(&rows, &positive, 1, "Blue", "18-30", false)
	repeat(&rows, &positive, 2, "Blue", "30-45", false)
	repeat(&rows, &positive, 1, "Blue", "60+", false)
	repeat(&rows, &positive, 1, "Green", "0-18", false)
	repeat(&rows, &positive, 1, "Green", "18-30", false)
	repeat(&rows, &positive, 2, "Green", "30-45", false)
	repeat(&rows, &positive, 1, "Green", "45-60", false)
	repeat(&rows, &positive, 1, "Green", "60+", false)
	repeat(&rows, &positive, 3, "Purple", "0-18", false)
	repeat(&rows, &positive, 3, "Purple", "45-60", false)

	return buildProblem(t, []string{"Race", "Age"}, rows, positive)
}

func TestBranchBound_ParityHidesSubgroupGap(t *testing.T) {
	problem := parityInstance(t)

	solution, err := NewBranchBound().Solve(context.Background(), problem)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if solution.Status != StatusOptimal {
		t.Errorf("expected optimal status, got %v", solution.Status)
	}

	want := 1.0 / 9.0
	if diff := solution.Value - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("expected msd value %.4f, got %.4f", want, solution.Value)
	}

	rule := problem.RuleOf(solution.Selected)
	if len(rule) != 2 {
		t.Fatalf("expected a 2-literal rule, got %q", rule.String())
	}

	got := map[string]string{}
	for _, lit := range rule {
		got[lit.Name] = lit.Bin.Category
	}
	if got["Race"] != "Blue" || got["Age"] != "0-18" {
		t.Errorf("expected rule Race=Blue AND Age=0-18, got %q", rule.String())
	}
}

func TestBranchBound_PerfectSeparator(t *testing.T) {
	// Region=v1 holds exactly the positive rows; v2 and v3 split the
	// negatives, so the single-literal rule Region=v1 is the unique
	// maximizer at the full marginal gap of 1.
	var rows [][]string
	var positive []bool
	repeat(&rows, &positive, 2, "v1", "M", true)
	repeat(&rows, &positive, 2, "v1", "F", true)
	repeat(&rows, &positive, 2, "v2", "M", false)
	repeat(&rows, &positive, 1, "v2", "F", false)
	repeat(&rows, &positive, 1, "v3", "M", false)
	repeat(&rows, &positive, 2, "v3", "F", false)

	problem := buildProblem(t, []string{"Region", "Sex"}, rows, positive)

	solution, err := NewBranchBound().Solve(context.Background(), problem)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if solution.Value != 1.0 {
		t.Errorf("expected msd value 1.0, got %v", solution.Value)
	}

	rule := problem.RuleOf(solution.Selected)
	if len(rule) != 1 || rule[0].Name != "Region" || rule[0].Bin.Category != "v1" {
		t.Errorf("expected rule Region = v1, got %q", rule.String())
	}
}

func TestBranchBound_IdenticalSidesYieldZero(t *testing.T) {
	// The positive and negative sides have identical empirical
	// distributions, so no subgroup can differ.
	var rows [][]string
	var positive []bool
	for _, label := range []bool{true, false} {
		repeat(&rows, &positive, 2, "Blue", "0-18", label)
		repeat(&rows, &positive, 3, "Green", "18-30", label)
		repeat(&rows, &positive, 1, "Purple", "60+", label)
	}

	problem := buildProblem(t, []string{"Race", "Age"}, rows, positive)

	solution, err := NewBranchBound().Solve(context.Background(), problem)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if solution.Value != 0 {
		t.Errorf("expected msd value 0, got %v", solution.Value)
	}
	if len(solution.Selected) != 0 {
		t.Errorf("expected the universal subgroup, got %q", problem.RuleOf(solution.Selected).String())
	}
}

// bruteForce enumerates every non-empty rule respecting the at-most-one-bin-
// per-attribute invariant and returns the maximal objective.
func bruteForce(t *testing.T, p *Problem) float64 {
	t.Helper()

	best := 0.0
	var rec func(attr int, selected []int)
	rec = func(attr int, selected []int) {
		if attr == len(p.Matrix.Groups) {
			if len(selected) == 0 {
				return
			}
			value, err := p.Evaluate(p.RuleOf(selected))
			if err != nil {
				t.Fatalf("failed to evaluate rule: %v", err)
			}
			if value > best {
				best = value
			}
			return
		}
		rec(attr+1, selected)
		for _, col := range p.Matrix.Groups[attr] {
			next := append(append([]int(nil), selected...), col)
			rec(attr+1, next)
		}
	}
	rec(0, nil)
	return best
}

func randomProblem(t *testing.T, seed int64) *Problem {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	var rows [][]string
	var positive []bool
	for i := 0; i < 80; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("a%d", rng.Intn(3)),
			fmt.Sprintf("b%d", rng.Intn(4)),
			fmt.Sprintf("c%d", rng.Intn(2)),
		})
		positive = append(positive, rng.Intn(2) == 1)
	}

	// Guarantee both sides are non-empty.
	positive[0] = true
	positive[1] = false

	return buildProblem(t, []string{"A", "B", "C"}, rows, positive)
}

func TestBranchBound_MatchesBruteForce(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		problem := randomProblem(t, seed)

		solution, err := NewBranchBound().Solve(context.Background(), problem)
		if err != nil {
			t.Fatalf("seed %d: expected no error, got %v", seed, err)
		}

		want := bruteForce(t, problem)
		if diff := solution.Value - want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("seed %d: brute force found %.6f, solver found %.6f", seed, want, solution.Value)
		}

		if solution.Value < 0 || solution.Value > 1 {
			t.Errorf("seed %d: value %v outside [0, 1]", seed, solution.Value)
		}

		// The returned rule must attain the returned value.
		attained, err := problem.Evaluate(problem.RuleOf(solution.Selected))
		if err != nil {
			t.Fatalf("seed %d: failed to evaluate returned rule: %v", seed, err)
		}
		if diff := attained - solution.Value; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("seed %d: rule attains %.6f, solver reported %.6f", seed, attained, solution.Value)
		}
	}
}

func TestBranchBound_SwappedSidesSameValue(t *testing.T) {
	problem := randomProblem(t, 7)

	forward, err := NewBranchBound().Solve(context.Background(), problem)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	swapped, err := NewProblem(problem.Matrix, problem.Neg, problem.Pos)
	if err != nil {
		t.Fatalf("failed to build swapped problem: %v", err)
	}
	backward, err := NewBranchBound().Solve(context.Background(), swapped)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if forward.Value != backward.Value {
		t.Errorf("swapping sides changed the value: %v vs %v", forward.Value, backward.Value)
	}
}

func TestBranchBound_Deterministic(t *testing.T) {
	problem := randomProblem(t, 11)

	first, err := NewBranchBound().Solve(context.Background(), problem)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := NewBranchBound().Solve(context.Background(), problem)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first.Value != second.Value {
		t.Errorf("values differ across runs: %v vs %v", first.Value, second.Value)
	}
	if len(first.Selected) != len(second.Selected) {
		t.Fatalf("selections differ across runs: %v vs %v", first.Selected, second.Selected)
	}
	for i := range first.Selected {
		if first.Selected[i] != second.Selected[i] {
			t.Errorf("selections differ across runs: %v vs %v", first.Selected, second.Selected)
			break
		}
	}
}

func TestBranchBound_BudgetExceeded(t *testing.T) {
	problem := randomProblem(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := &BranchBound{CheckEvery: 1}
	if _, err := solver.Solve(ctx, problem); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestBranchBound_BestEffortReturnsIncumbent(t *testing.T) {
	problem := randomProblem(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := &BranchBound{CheckEvery: 1, BestEffort: true}
	solution, err := solver.Solve(ctx, problem)
	if err != nil {
		t.Fatalf("expected no error in best-effort mode, got %v", err)
	}
	if solution.Status != StatusFeasible {
		t.Errorf("expected feasible status, got %v", solution.Status)
	}
}
