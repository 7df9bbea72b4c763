package linear

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/core/matrix"
	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// The solve pass accumulates (AᵗA)⁻¹·xᵢ·yᵢ row by row; summed over the rows
// this must equal (AᵗA)⁻¹·Aᵗb.
func TestSolveMultipliersMatchesNormalEquations(t *testing.T) {
	tbl := newTable(t, []string{"a", "b", "y"},
		[]float64{1, 2, 3.5},
		[]float64{2, 1, 4},
		[]float64{3, 5, 9.25},
		[]float64{na, 1, 2},
		[]float64{4, 3, 8},
		[]float64{5, 8, 14.5},
		[]float64{6, 2, na},
		[]float64{7, 4, 11},
	)
	rd, err := DesignSpec{Target: "y", Predictors: []string{"a", "b"}}.Resolve(tbl.Schema())
	require.NoError(t, err)

	ctx := context.Background()
	cfg := defaultConfig()
	cfg.logger = quietLogger()
	mon := newMonitor(nil, tbl, false)

	m, err := accumulate(ctx, tbl, rd, mon, cfg)
	require.NoError(t, err)
	inv, err := invert(m.ata)
	require.NoError(t, err)

	got, err := solveMultipliers(ctx, tbl, rd, m, inv, mon, cfg)
	require.NoError(t, err)

	atb := make([]float64, 3)
	buf := make([]float64, 3)
	for i := 0; i < tbl.Len(); i++ {
		target, ok := rd.load(tbl.Row(i), buf)
		if !ok {
			assert.True(t, m.mask.Skipped(i), "row %d", i)
			continue
		}
		for k, v := range buf {
			atb[k] += v * target
		}
	}
	want, err := matrix.MulVec(inv, atb)
	require.NoError(t, err)

	assert.InDeltaSlice(t, want, got, 1e-9)
	assert.Equal(t, 2, m.rowsSkipped)
}

func TestFitReportsNonFiniteInput(t *testing.T) {
	// NaN here is a value, not a missing cell.
	x := mat.NewDense(5, 2, []float64{
		1, 3,
		2, 5,
		math.NaN(), 7,
		4, 9,
		5, 11,
	})
	tbl, err := dataset.TableFromMatrix(x, []string{"x", "y"})
	require.NoError(t, err)

	_, err = fit(t, tbl, xy())
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrNumericallyUnstable))
	assert.False(t, errors.Is(err, errors.ErrSingularMatrix))
	assert.Contains(t, err.Error(), "normal equations matrix")
	assert.NotContains(t, err.Error(), "singular")
	assert.Len(t, errors.Hints(err), 3)
}

func TestFitSurfacesIteratorCloseError(t *testing.T) {
	closeErr := stderrors.New("file handle lost")
	rows := [][]float64{{1, 2}, {2, 4}, {3, 6}, {4, 8}}

	for _, stage := range []Stage{StageAccumulate, StageSolve, StageError} {
		t.Run(string(stage), func(t *testing.T) {
			failOn := map[Stage]int{StageAccumulate: 0, StageSolve: 1, StageError: 2}[stage]
			src := &closeFailSource{Table: newTable(t, []string{"x", "y"}, rows...), failOn: failOn, err: closeErr}

			l := NewLearner(WithLogger(quietLogger()), WithComputeError(true))
			_, err := l.Fit(context.Background(), src, xy())
			require.Error(t, err)
			assert.True(t, errors.Is(err, closeErr))

			_, err = l.Result()
			var nf *errors.NotFittedError
			assert.True(t, errors.As(err, &nf))
		})
	}
}
