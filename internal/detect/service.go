package detect

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/GerMati/detect/internal/dataset"
	"github.com/GerMati/detect/internal/encoding"
	"github.com/GerMati/detect/internal/msd"
)

// MethodMSD is the only supported detection method: Maximum Subgroup
// Discrepancy via exact combinatorial optimization.
const MethodMSD = "MSD"

// Options carries the caller-supplied configuration for one detection call.
type Options struct {
	// Protected lists the attributes the subgroup search ranges over, in
	// order. Required.
	Protected []string
	// Continuous names the protected attributes to treat as continuous;
	// each needs cut points in Cuts.
	Continuous []string
	// Cuts maps a continuous attribute to its ordered cut points.
	Cuts map[string][]float64
	// SampleSize caps the number of rows drawn from each side of the
	// distribution pair. Zero means use all rows.
	SampleSize int
	// Seed controls subsampling; fixed seed, data, and configuration give
	// bit-identical results.
	Seed int64
	// TimeBudget bounds the solver's wall clock. Zero means no bound.
	TimeBudget time.Duration
	// BestEffort returns the best incumbent, labeled suboptimal, instead
	// of failing when the time budget runs out.
	BestEffort bool
	// Method selects the detection method; empty defaults to MSD.
	Method string
	// Solver overrides the optimizer backend. Nil uses the built-in exact
	// branch-and-bound.
	Solver msd.Solver
}

// Report is the outcome of one detection call.
type Report struct {
	Value  float64
	Rule   msd.Rule
	Status msd.Status
	// Profile is the per-bin signed representation gap (positive share
	// minus negative share), one entry per bin of the encoded matrix. It
	// characterizes the bias structure of the whole instance, not just the
	// maximizing rule.
	Profile []float32
	// BinLabels describe the profile dimensions, e.g. "Race = Blue".
	BinLabels []string
	// PosRows and NegRows are the per-side row counts actually solved
	// over, after subsampling.
	PosRows int
	NegRows int
}

// Service runs MSD bias detection over datasets.
type Service struct{}

// NewService creates a detection service.
func NewService() *Service {
	return &Service{}
}

// DetectBias computes the maximum subgroup discrepancy between the positive-
// and negative-label partitions of one dataset. The target column must be
// binary and must not appear in the protected list.
func (s *Service) DetectBias(ctx context.Context, ds *dataset.Dataset, target string, opts Options) (*Report, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	for _, name := range opts.Protected {
		if name == target {
			return nil, fmt.Errorf("%w: %q", ErrTargetProtected, target)
		}
	}

	labels, err := ds.Column(target)
	if err != nil {
		return nil, fmt.Errorf("%w: target %q", ErrUnknownAttribute, target)
	}

	var posIdx, negIdx []int
	for i, cell := range labels {
		positive, err := parseBinaryLabel(cell)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d value %q", ErrTargetNotBinary, i, cell)
		}
		if positive {
			posIdx = append(posIdx, i)
		} else {
			negIdx = append(negIdx, i)
		}
	}
	if len(posIdx) == 0 || len(negIdx) == 0 {
		return nil, fmt.Errorf("%w: %d positive, %d negative", ErrEmptyPartition, len(posIdx), len(negIdx))
	}

	// The label column is consumed by the partition above; the subgroup
	// search runs over the feature columns only.
	features, err := ds.Drop(target)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, features, posIdx, negIdx, opts)
}

// DetectBiasTwoSamples computes the maximum subgroup discrepancy between two
// datasets sharing the same attribute schema.
func (s *Service) DetectBiasTwoSamples(ctx context.Context, a, b *dataset.Dataset, opts Options) (*Report, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	combined, err := a.Concat(b)
	if err != nil {
		return nil, err
	}

	posIdx := make([]int, a.Len())
	for i := range posIdx {
		posIdx[i] = i
	}
	negIdx := make([]int, b.Len())
	for i := range negIdx {
		negIdx[i] = a.Len() + i
	}

	return s.run(ctx, combined, posIdx, negIdx, opts)
}

// run subsamples each side, encodes the protected attributes, and dispatches
// the optimization.
func (s *Service) run(ctx context.Context, ds *dataset.Dataset, posIdx, negIdx []int, opts Options) (*Report, error) {
	if opts.SampleSize > 0 {
		rng := rand.New(rand.NewSource(opts.Seed))
		posIdx = msd.SampleIndices(posIdx, opts.SampleSize, rng)
		negIdx = msd.SampleIndices(negIdx, opts.SampleSize, rng)
	}

	indices := make([]int, 0, len(posIdx)+len(negIdx))
	indices = append(indices, posIdx...)
	indices = append(indices, negIdx...)

	working, err := ds.Select(indices)
	if err != nil {
		return nil, err
	}

	posSide := make([]bool, working.Len())
	negSide := make([]bool, working.Len())
	for i := range posIdx {
		posSide[i] = true
	}
	for i := range negIdx {
		negSide[len(posIdx)+i] = true
	}

	attrs, err := buildAttributes(working, opts)
	if err != nil {
		return nil, err
	}

	matrix, err := encoding.Encode(working, attrs)
	if err != nil {
		return nil, err
	}

	pos, err := msd.SideWeights(posSide)
	if err != nil {
		return nil, err
	}
	neg, err := msd.SideWeights(negSide)
	if err != nil {
		return nil, err
	}

	problem, err := msd.NewProblem(matrix, pos, neg)
	if err != nil {
		return nil, err
	}

	solver := opts.Solver
	if solver == nil {
		solver = &msd.BranchBound{BestEffort: opts.BestEffort, CheckEvery: 1024}
	}

	if opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeBudget)
		defer cancel()
	}

	solution, err := solver.Solve(ctx, problem)
	if err != nil {
		return nil, err
	}

	profile, labels := biasProfile(problem)

	return &Report{
		Value:     solution.Value,
		Rule:      problem.RuleOf(solution.Selected),
		Status:    solution.Status,
		Profile:   profile,
		BinLabels: labels,
		PosRows:   len(posIdx),
		NegRows:   len(negIdx),
	}, nil
}

// buildAttributes turns the protected/continuous configuration into bin
// catalogues over the working dataset.
func buildAttributes(ds *dataset.Dataset, opts Options) ([]encoding.Attribute, error) {
	continuous := make(map[string]bool, len(opts.Continuous))
	for _, name := range opts.Continuous {
		continuous[name] = true
	}

	protected := make(map[string]bool, len(opts.Protected))
	attrs := make([]encoding.Attribute, 0, len(opts.Protected))
	for _, name := range opts.Protected {
		if !ds.HasColumn(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
		}
		protected[name] = true

		if continuous[name] {
			attr, err := encoding.ContinuousAttribute(name, opts.Cuts[name])
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, attr)
			continue
		}

		cells, err := ds.Column(name)
		if err != nil {
			return nil, err
		}
		attr, err := encoding.CategoricalAttribute(name, cells)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}

	for _, name := range opts.Continuous {
		if !protected[name] {
			return nil, fmt.Errorf("%w: %q", ErrContinuousExtra, name)
		}
	}

	return attrs, nil
}

// biasProfile computes the signed representation gap of every single bin,
// giving a fixed-length signature of the instance's bias structure.
func biasProfile(p *msd.Problem) ([]float32, []string) {
	m := p.Matrix
	profile := make([]float32, m.BinCount())
	labels := make([]string, m.BinCount())

	for j, col := range m.Cols {
		var pSum, nSum float64
		for i, in := range col {
			if in {
				pSum += p.Pos[i]
				nSum += p.Neg[i]
			}
		}
		profile[j] = float32(pSum - nSum)
		labels[j] = m.Attributes[m.ColAttr[j]].Name + " " + m.Bins[j].String()
	}

	return profile, labels
}

func validateOptions(opts Options) error {
	if opts.Method != "" && opts.Method != MethodMSD {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, opts.Method)
	}
	if len(opts.Protected) == 0 {
		return ErrNoProtected
	}
	return nil
}

// parseBinaryLabel interprets a raw label cell. Only recognizably binary
// labels are accepted; anything else is a configuration error.
func parseBinaryLabel(cell string) (bool, error) {
	switch strings.ToLower(cell) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("not a binary label: %q", cell)
}
