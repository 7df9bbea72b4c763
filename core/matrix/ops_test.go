package matrix

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// randomWellConditioned returns a diagonally dominant n x n matrix.
func randomWellConditioned(rng *rand.Rand, n int) *Dense {
	d := Zeros(n, n)
	for i := 0; i < n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			v := rng.Float64()*2 - 1
			d.Set(i, j, v)
			rowSum += math.Abs(v)
		}
		d.Set(i, i, rowSum+1+rng.Float64())
		if rng.IntN(2) == 0 {
			d.Set(i, i, -d.At(i, i))
		}
	}
	return d
}

func TestInverseRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))

	for _, n := range []int{1, 2, 3, 5, 8, 13, 21} {
		for trial := 0; trial < 5; trial++ {
			m := randomWellConditioned(rng, n)

			inv, err := Inverse(m)
			require.NoError(t, err)

			prod, err := Multiply(m, inv)
			require.NoError(t, err)

			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					want := 0.0
					if i == j {
						want = 1.0
					}
					if math.Abs(prod.At(i, j)-want) > 1e-9 {
						t.Fatalf("n=%d trial=%d: (M·M⁻¹)[%d][%d] = %g, want %g", n, trial, i, j, prod.At(i, j), want)
					}
				}
			}
		}
	}
}

func TestInverseMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	m := randomWellConditioned(rng, 6)

	got, err := Inverse(m)
	require.NoError(t, err)

	var want mat.Dense
	require.NoError(t, want.Inverse(m.ToMat()))

	gm := got.ToMat()
	assert.True(t, mat.EqualApprox(gm, &want, 1e-10), "inverse differs from gonum:\n%v\n%v",
		mat.Formatted(gm), mat.Formatted(&want))

	// ToMat copies, so the gonum matrix does not alias the result.
	gm.Set(0, 0, 42)
	assert.NotEqual(t, 42.0, got.At(0, 0))
}

func TestInverseRequiresPivoting(t *testing.T) {
	// A zero on the diagonal forces a pivot other than the natural row order.
	m, err := FromRows([][]float64{
		{0, 2, 1},
		{1, 0, 0},
		{3, 1, 4},
	})
	require.NoError(t, err)

	inv, err := Inverse(m)
	require.NoError(t, err)

	prod, err := Multiply(m, inv)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(prod, Identity(3), 1e-12))
}

func TestInverseDoesNotMutateInput(t *testing.T) {
	m, err := FromRows([][]float64{{4, 7}, {2, 6}})
	require.NoError(t, err)
	before := m.Rows()

	_, err = Inverse(m)
	require.NoError(t, err)

	assert.Equal(t, before, m.Rows())
}

func TestInverseIsDeterministic(t *testing.T) {
	// Equal magnitudes in the first column exercise the first-encountered tie-break.
	m, err := FromRows([][]float64{
		{2, 1, 0},
		{-2, 3, 1},
		{2, 0, 5},
	})
	require.NoError(t, err)

	first, err := Inverse(m)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Inverse(m)
		require.NoError(t, err)
		assert.Equal(t, first.Rows(), again.Rows())
	}
}

func TestInverseSingular(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
	}{
		{"zero matrix", [][]float64{{0, 0}, {0, 0}}},
		{"zero row", [][]float64{{1, 2, 3}, {0, 0, 0}, {4, 5, 6}}},
		{"zero column", [][]float64{{1, 0, 3}, {2, 0, 1}, {4, 0, 6}}},
		{"dependent rows", [][]float64{{1, 2}, {2, 4}}},
		{"dependent row combination", [][]float64{{1, 0, 1}, {0, 1, 1}, {1, 1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := FromRows(tt.rows)
			require.NoError(t, err)

			inv, err := Inverse(m)
			require.Error(t, err)
			assert.Nil(t, inv)
			assert.True(t, errors.Is(err, errors.ErrSingularMatrix))

			var singular *errors.SingularMatrixError
			assert.True(t, errors.As(err, &singular))
		})
	}
}

func TestInverseEliminatesZeroFactors(t *testing.T) {
	// Row 1 has a zero in the pivot column, so elimination multiplies the
	// infinite pivot-row entry by zero. The resulting NaN leaves column 1
	// without a usable pivot.
	m, err := FromRows([][]float64{{1, math.Inf(1)}, {0, 1}})
	require.NoError(t, err)

	_, err = Inverse(m)
	require.Error(t, err)
	var singular *errors.SingularMatrixError
	require.True(t, errors.As(err, &singular))
	assert.Equal(t, 1, singular.Column)
}

func TestInverseDimensionErrors(t *testing.T) {
	_, err := Inverse(nil)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	m := Zeros(2, 3)
	_, err = Inverse(m)
	assert.True(t, errors.As(err, &dimErr))
}

func TestMultiply(t *testing.T) {
	a, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	b, err := FromRows([][]float64{{7, 8}, {9, 10}, {11, 12}})
	require.NoError(t, err)

	got, err := Multiply(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{58, 64}, {139, 154}}, got.Rows())

	var want mat.Dense
	want.Mul(a, b)
	assert.True(t, mat.Equal(got, &want))
}

func TestMultiplyDimensionMismatch(t *testing.T) {
	a := Zeros(2, 3)
	b := Zeros(2, 2)

	_, err := Multiply(a, b)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)
}

func TestMulVec(t *testing.T) {
	a, err := FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	got, err := MulVec(a, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 7}, got)

	_, err = MulVec(a, []float64{1})
	assert.Error(t, err)
}

func BenchmarkInverse(b *testing.B) {
	rng := rand.New(rand.NewPCG(42, 42))
	m := randomWellConditioned(rng, 30)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Inverse(m); err != nil {
			b.Fatal(err)
		}
	}
}
