package matrix

import (
	"math"

	"github.com/YuminosukeSato/linreg/core/parallel"
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// parallelWork は Multiply を並列化する乗算回数の目安
const parallelWork = 1 << 16

// Inverse returns the inverse of the square matrix m using Gauss-Jordan
// elimination with partial pivoting.
//
// For every column the pivot is the row with the strictly largest absolute
// value among rows not yet used as a pivot; on ties the row scanned first
// wins. Rows are never swapped physically: order[c] records the pivot row of
// column c and the result is reassembled from it at the end. A zero pivot
// aborts with a SingularMatrixError. m is not modified.
func Inverse(m *Dense) (*Dense, error) {
	const op = "matrix.Inverse"
	if m == nil {
		return nil, errors.NewDimensionError(op, 1, 0, 0)
	}
	if !m.IsSquare() {
		return nil, errors.NewDimensionError(op, m.rows, m.cols, 1)
	}

	n := m.rows
	work := m.Clone()
	acc := Identity(n)
	used := make([]bool, n)
	order := make([]int, n)

	for c := 0; c < n; c++ {
		pivotRow := -1
		maxAbs := 0.0
		for r := 0; r < n; r++ {
			if used[r] {
				continue
			}
			if v := math.Abs(work.data[r*n+c]); v > maxAbs {
				maxAbs = v
				pivotRow = r
			}
		}
		if maxAbs == 0.0 {
			return nil, errors.NewSingularMatrixError(op, c)
		}
		used[pivotRow] = true
		order[c] = pivotRow

		wp := work.data[pivotRow*n : (pivotRow+1)*n]
		ap := acc.data[pivotRow*n : (pivotRow+1)*n]
		pivot := wp[c]
		for j := 0; j < n; j++ {
			wp[j] /= pivot
			ap[j] /= pivot
		}

		for r := 0; r < n; r++ {
			if r == pivotRow {
				continue
			}
			wr := work.data[r*n : (r+1)*n]
			factor := wr[c]
			ar := acc.data[r*n : (r+1)*n]
			for j := 0; j < n; j++ {
				wr[j] -= factor * wp[j]
				ar[j] -= factor * ap[j]
			}
			wr[c] = 0
		}
	}

	inv := Zeros(n, n)
	for c, r := range order {
		copy(inv.data[c*n:(c+1)*n], acc.data[r*n:(r+1)*n])
	}
	return inv, nil
}

// Multiply returns a·b. The number of columns of a must equal the number of
// rows of b.
func Multiply(a, b *Dense) (*Dense, error) {
	const op = "matrix.Multiply"
	if a == nil || b == nil {
		return nil, errors.NewDimensionError(op, 1, 0, 0)
	}
	if a.cols != b.rows {
		return nil, errors.NewDimensionError(op, a.cols, b.rows, 0)
	}

	out := Zeros(a.rows, b.cols)
	// 行ごとに独立なので、大きな積だけ行ブロックに分けて並列に計算する
	rowWork := b.cols * a.cols
	threshold := 0
	if rowWork > 0 {
		threshold = parallelWork / rowWork
	}
	parallel.ParallelizeWithThreshold(a.rows, threshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < b.cols; j++ {
				var sum float64
				for k := 0; k < a.cols; k++ {
					sum += a.data[i*a.cols+k] * b.data[k*b.cols+j]
				}
				out.data[i*out.cols+j] = sum
			}
		}
	})
	return out, nil
}

// MulVec returns a·x.
func MulVec(a *Dense, x []float64) ([]float64, error) {
	const op = "matrix.MulVec"
	if a == nil {
		return nil, errors.NewDimensionError(op, 1, 0, 0)
	}
	if a.cols != len(x) {
		return nil, errors.NewDimensionError(op, a.cols, len(x), 0)
	}

	out := make([]float64, a.rows)
	for i := 0; i < a.rows; i++ {
		row := a.data[i*a.cols : (i+1)*a.cols]
		var sum float64
		for j, v := range row {
			sum += v * x[j]
		}
		out[i] = sum
	}
	return out, nil
}
