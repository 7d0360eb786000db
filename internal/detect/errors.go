package detect

import (
	"errors"

	"github.com/GerMati/detect/internal/dataset"
	"github.com/GerMati/detect/internal/encoding"
	"github.com/GerMati/detect/internal/msd"
)

var (
	ErrNoProtected      = errors.New("at least one protected attribute is required")
	ErrUnknownAttribute = errors.New("attribute not found in dataset")
	ErrUnknownMethod    = errors.New("unknown detection method")
	ErrContinuousExtra  = errors.New("continuous attribute is not in the protected list")
	ErrTargetProtected  = errors.New("target column cannot be a protected attribute")
	ErrTargetNotBinary  = errors.New("target column is not binary")
	ErrEmptyPartition   = errors.New("label partition has no rows")
)

// IsConfigError reports whether err is a caller configuration problem:
// bad attribute names, an unbinnable continuous attribute, or an unsupported
// method. Configuration errors are reported immediately and never retried.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoProtected) ||
		errors.Is(err, ErrUnknownAttribute) ||
		errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrContinuousExtra) ||
		errors.Is(err, ErrTargetProtected) ||
		errors.Is(err, ErrTargetNotBinary) ||
		errors.Is(err, encoding.ErrNoCutPoints) ||
		errors.Is(err, encoding.ErrNotNumeric) ||
		errors.Is(err, dataset.ErrUnknownColumn)
}

// IsDataError reports whether err means a distribution side is empty, which
// leaves the discrepancy objective undefined.
func IsDataError(err error) bool {
	return errors.Is(err, ErrEmptyPartition) ||
		errors.Is(err, msd.ErrEmptySide) ||
		errors.Is(err, dataset.ErrEmpty) ||
		errors.Is(err, dataset.ErrSchemaMismatch)
}

// IsSolverError reports whether err means the optimizer could not certify an
// optimum within its budget. Distinct from a zero-valued report, which is a
// legitimate "no bias found" result.
func IsSolverError(err error) bool {
	return errors.Is(err, msd.ErrBudgetExceeded)
}
