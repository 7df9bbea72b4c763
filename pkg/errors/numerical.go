package errors

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Remediation hints attached to a NumericallyUnstableError.
const (
	HintRemoveOutliers = "remove outliers from the input data"
	HintFewerColumns   = "select fewer predictor columns"
	HintNormalize      = "normalize the data before learning"
)

// maxReportedValues bounds how many offending values an error keeps.
const maxReportedValues = 10

// NumericallyUnstableError is returned when a computed matrix contains
// non-finite entries (NaN or ±Inf), or when it could not be computed at all
// because the input was singular.
type NumericallyUnstableError struct {
	Operation string    // e.g. "normal_matrix_inverse"
	Values    []float64 // offending values, at most maxReportedValues
	Row       int       // first offending matrix row, -1 if unknown
	Col       int       // first offending matrix column, -1 if unknown
	Cause     error     // underlying error such as a SingularMatrixError
}

func (e *NumericallyUnstableError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "linreg: could not calculate %s", e.Operation)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Values) > 0 {
		b.WriteString(", got [")
		for i, v := range e.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			if i >= 5 {
				b.WriteString("...")
				break
			}
			fmt.Fprintf(&b, "%.6g", v)
		}
		fmt.Fprintf(&b, "] at (%d, %d)", e.Row, e.Col)
	}
	return b.String()
}

func (e *NumericallyUnstableError) Unwrap() error {
	return e.Cause
}

// Is により errors.Is(err, ErrNumericallyUnstable) が成立します。
func (e *NumericallyUnstableError) Is(target error) bool {
	return target == ErrNumericallyUnstable
}

// MarshalZerologObject adds the structured fields to a zerolog event.
func (e *NumericallyUnstableError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Floats64("values", e.Values).
		Int("row", e.Row).
		Int("col", e.Col).
		Str("type", "NumericallyUnstableError")
}

// NewNumericallyUnstableError creates the error and attaches the remediation
// hints (remove outliers, fewer columns, normalize).
func NewNumericallyUnstableError(operation string, cause error, values []float64, row, col int) error {
	var err error = &NumericallyUnstableError{
		Operation: operation,
		Values:    values,
		Row:       row,
		Col:       col,
		Cause:     cause,
	}
	err = errors.WithStack(err)
	err = errors.WithHint(err, HintRemoveOutliers)
	err = errors.WithHint(err, HintFewerColumns)
	return errors.WithHint(err, HintNormalize)
}

// CheckMatrix checks all values of a matrix for NaN or Inf and returns a
// NumericallyUnstableError describing the first offending entries.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	var (
		unstable           []float64
		firstRow, firstCol = -1, -1
	)
	for i := 0; i < rows && len(unstable) < maxReportedValues; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				if firstRow < 0 {
					firstRow, firstCol = i, j
				}
				unstable = append(unstable, v)
				if len(unstable) >= maxReportedValues {
					break
				}
			}
		}
	}
	if len(unstable) > 0 {
		return NewNumericallyUnstableError(operation, nil, unstable, firstRow, firstCol)
	}
	return nil
}

// CheckNumericalStability checks if values contain NaN or Inf.
func CheckNumericalStability(operation string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericallyUnstableError(operation, nil, []float64{v}, i, -1)
		}
	}
	return nil
}
