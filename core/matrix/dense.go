// Package matrix provides the small dense matrices used by the regression
// learner: a row-major float64 buffer with explicit dimensions, Gauss-Jordan
// inversion with partial pivoting, and multiplication.
//
// Dense implements gonum's mat.Matrix, so results can be handed to gonum for
// further processing or verification.
package matrix

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// Dense is a rows x cols matrix stored row-major in a flat slice.
type Dense struct {
	rows, cols int
	data       []float64
}

var _ mat.Matrix = (*Dense)(nil)

// NewDense creates a rows x cols matrix backed by data. If data is nil a zero
// matrix is allocated; otherwise len(data) must equal rows*cols and the slice
// is used without copying.
func NewDense(rows, cols int, data []float64) (*Dense, error) {
	if rows <= 0 {
		return nil, errors.NewDimensionError("matrix.NewDense", 1, rows, 0)
	}
	if cols <= 0 {
		return nil, errors.NewDimensionError("matrix.NewDense", 1, cols, 1)
	}
	if data == nil {
		data = make([]float64, rows*cols)
	}
	if len(data) != rows*cols {
		return nil, errors.NewDimensionError("matrix.NewDense", rows*cols, len(data), 1)
	}
	return &Dense{rows: rows, cols: cols, data: data}, nil
}

// Zeros returns a rows x cols zero matrix. It panics on non-positive sizes.
func Zeros(rows, cols int) *Dense {
	if rows <= 0 || cols <= 0 {
		panic("matrix: non-positive dimension")
	}
	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Dense {
	d := Zeros(n, n)
	for i := 0; i < n; i++ {
		d.data[i*n+i] = 1
	}
	return d
}

// FromRows copies a [][]float64 into a Dense. Every row must have the length
// of the first row.
func FromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 {
		return nil, errors.NewDimensionError("matrix.FromRows", 1, 0, 0)
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, errors.NewDimensionError("matrix.FromRows", 1, 0, 1)
	}
	d := Zeros(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, errors.NewDimensionError("matrix.FromRows", cols, len(r), 1)
		}
		copy(d.data[i*cols:(i+1)*cols], r)
	}
	return d, nil
}

// FromMat copies any gonum matrix into a Dense.
func FromMat(m mat.Matrix) *Dense {
	r, c := m.Dims()
	d := Zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d.data[i*c+j] = m.At(i, j)
		}
	}
	return d
}

// Dims returns the number of rows and columns.
func (d *Dense) Dims() (r, c int) { return d.rows, d.cols }

// At returns the element at row i, column j.
func (d *Dense) At(i, j int) float64 {
	d.check(i, j)
	return d.data[i*d.cols+j]
}

// Set sets the element at row i, column j.
func (d *Dense) Set(i, j int, v float64) {
	d.check(i, j)
	d.data[i*d.cols+j] = v
}

// T returns the transpose as a gonum view.
func (d *Dense) T() mat.Matrix { return mat.Transpose{Matrix: d} }

// IsSquare reports whether the matrix has as many rows as columns.
func (d *Dense) IsSquare() bool { return d.rows == d.cols }

// RawRow returns row i as a view into the backing slice.
func (d *Dense) RawRow(i int) []float64 {
	d.check(i, 0)
	return d.data[i*d.cols : (i+1)*d.cols]
}

// Rows returns a copy of the matrix as a slice of rows.
func (d *Dense) Rows() [][]float64 {
	out := make([][]float64, d.rows)
	for i := range out {
		out[i] = append([]float64(nil), d.RawRow(i)...)
	}
	return out
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	return &Dense{rows: d.rows, cols: d.cols, data: append([]float64(nil), d.data...)}
}

// ToMat copies the matrix into a gonum *mat.Dense.
func (d *Dense) ToMat() *mat.Dense {
	return mat.NewDense(d.rows, d.cols, append([]float64(nil), d.data...))
}

// IsFinite reports whether no element is NaN or ±Inf.
func (d *Dense) IsFinite() bool {
	for _, v := range d.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MirrorUpper copies the upper triangle onto the lower one of a square matrix.
func (d *Dense) MirrorUpper() {
	if !d.IsSquare() {
		panic("matrix: MirrorUpper on non-square matrix")
	}
	n := d.cols
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			d.data[i*n+j] = d.data[j*n+i]
		}
	}
}

func (d *Dense) check(i, j int) {
	if i < 0 || i >= d.rows {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= d.cols {
		panic(mat.ErrColAccess)
	}
}
