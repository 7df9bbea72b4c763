package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

func vec(v ...float64) *mat.VecDense { return mat.NewVecDense(len(v), v) }

func TestMSE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{"perfect prediction", vec(1, 2, 3, 4, 5), vec(1, 2, 3, 4, 5), 0, false},
		{"simple case", vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.25, false},
		{"larger errors", vec(10, 20, 30), vec(12, 18, 33), 17.0 / 3.0, false},
		{"dimension mismatch", vec(1, 2, 3), vec(1, 2), 0, true},
		{"empty vectors", &mat.VecDense{}, &mat.VecDense{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestEmptyInputIsErrEmptyData(t *testing.T) {
	_, err := MAE(&mat.VecDense{}, &mat.VecDense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestRMSE(t *testing.T) {
	got, err := RMSE(vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)
}

func TestMAE(t *testing.T) {
	got, err := MAE(vec(10, 20, 30), vec(12, 18, 33))
	require.NoError(t, err)
	assert.InDelta(t, 7.0/3.0, got, 1e-12)

	_, err = MAE(vec(1, 2), vec(1))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestSSE(t *testing.T) {
	assert.Equal(t, 17.0, SSE(vec(10, 20, 30), vec(12, 18, 33)))
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{"perfect prediction", vec(1, 2, 3, 4), vec(1, 2, 3, 4), 1, false},
		{"mean prediction", vec(1, 2, 3, 4), vec(2.5, 2.5, 2.5, 2.5), 0, false},
		// RSS = 1, TSS = 5
		{"partial fit", vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.8, false},
		{"constant target", vec(3, 3, 3), vec(1, 2, 3), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func TestExplainedVarianceScore(t *testing.T) {
	// A constant bias does not change the explained variance.
	got, err := ExplainedVarianceScore(vec(1, 2, 3, 4), vec(2, 3, 4, 5))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	got, err = ExplainedVarianceScore(vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5))
	require.NoError(t, err)
	// diff = (-0.5, -0.5, 0.5, 0.5): var 1/3 vs var(yTrue) 5/3
	assert.InDelta(t, 0.8, got, 1e-12)

	_, err = ExplainedVarianceScore(vec(2, 2), vec(1, 3))
	assert.Error(t, err)

	_, err = ExplainedVarianceScore(vec(2), vec(1))
	assert.Error(t, err)
}

func BenchmarkMSE(b *testing.B) {
	n := 10000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, math.Sin(float64(i)))
		yPred.SetVec(i, math.Sin(float64(i))+0.01)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
