package linear

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

func fittedModel(t *testing.T) *Model {
	t.Helper()
	// y = 1 + 2a - b
	tbl := newTable(t, []string{"a", "b", "y"},
		[]float64{0, 0, 1},
		[]float64{1, 0, 3},
		[]float64{0, 1, 0},
		[]float64{1, 2, 1},
		[]float64{3, 1, 6},
	)
	res, err := fit(t, tbl, DesignSpec{Target: "y", Predictors: []string{"a", "b"}}, WithComputeError(true))
	require.NoError(t, err)
	m, err := NewModel(res)
	require.NoError(t, err)
	return m
}

func TestNewModelNil(t *testing.T) {
	_, err := NewModel(nil)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestModelPredict(t *testing.T) {
	m := fittedModel(t)

	// Predictor columns in a different order and no target column.
	tbl := newTable(t, []string{"b", "a"},
		[]float64{0, 2},
		[]float64{na, 1},
		[]float64{4, 0},
	)
	got, err := m.Predict(context.Background(), tbl)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.InDelta(t, 5.0, got[0].Float(), 1e-9)
	assert.True(t, got[1].Missing())
	assert.InDelta(t, -3.0, got[2].Float(), 1e-9)
}

func TestModelPredictMissingColumn(t *testing.T) {
	m := fittedModel(t)
	tbl := newTable(t, []string{"a"}, []float64{1})

	_, err := m.Predict(context.Background(), tbl)
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestModelPredictCancelled(t *testing.T) {
	m := fittedModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Predict(ctx, newTable(t, []string{"a", "b"}, []float64{1, 1}))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestModelPredictMatrix(t *testing.T) {
	m := fittedModel(t)

	for _, rows := range []int{3, parallelThreshold + 500} {
		X := mat.NewDense(rows, 2, nil)
		for i := 0; i < rows; i++ {
			X.Set(i, 0, float64(i%7))
			X.Set(i, 1, float64(i%3)-1)
		}
		got, err := m.PredictMatrix(X)
		require.NoError(t, err)
		require.Equal(t, rows, got.Len())
		for i := 0; i < rows; i++ {
			want := 1 + 2*X.At(i, 0) - X.At(i, 1)
			assert.InDelta(t, want, got.AtVec(i), 1e-9, "row %d", i)
		}
	}

	_, err := m.PredictMatrix(mat.NewDense(2, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestModelScore(t *testing.T) {
	m := fittedModel(t)

	tbl := newTable(t, []string{"a", "b", "y"},
		[]float64{2, 0, 5},
		[]float64{0, 3, -2},
		[]float64{na, 3, -2},
		[]float64{1, 1, na},
		[]float64{4, 4, 5},
	)
	score, err := m.Score(context.Background(), tbl)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	_, err = m.Score(context.Background(), newTable(t, []string{"a", "b"}, []float64{1, 1}))
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = m.Score(context.Background(), newTable(t, []string{"a", "b", "y"}, []float64{na, 1, 1}))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestResultAccessors(t *testing.T) {
	m := fittedModel(t)
	res := m.Result()

	assert.Equal(t, "y", res.Target())
	assert.Equal(t, []string{"a", "b"}, res.Predictors())
	assert.Equal(t, 5, res.RowsTotal())
	assert.Equal(t, 0, res.RowsSkipped())

	mean, ok := res.MeanOf("a")
	require.True(t, ok)
	assert.InDelta(t, 1.0, mean, 1e-12)
	_, ok = res.MeanOf("y")
	assert.False(t, ok)

	params := res.Params()
	assert.Len(t, params, 3)
	assert.InDelta(t, 1.0, params["y"], 1e-9)
	assert.InDelta(t, 2.0, params["a"], 1e-9)
	assert.InDelta(t, -1.0, params["b"], 1e-9)

	// Accessors hand out copies.
	coef := res.Coefficients()
	coef[0] = 100
	assert.InDelta(t, 2.0, res.Coefficients()[0], 1e-9)
	names := res.Predictors()
	names[0] = "changed"
	assert.Equal(t, "a", res.Predictors()[0])
}

func TestResultJSON(t *testing.T) {
	res := fittedModel(t).Result()

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"target", "predictors", "offset", "coefficients", "means", "nr_rows", "nr_rows_skipped", "error", "params"} {
		assert.Contains(t, fields, key)
	}

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, res, &back)
}

func TestResultJSONWithoutError(t *testing.T) {
	tbl := newTable(t, []string{"x", "y"}, []float64{1, 2}, []float64{2, 4}, []float64{3, 6}, []float64{4, 8})
	res, err := fit(t, tbl, xy())
	require.NoError(t, err)

	_, ok := res.SumSquaredError()
	assert.False(t, ok)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	_, ok = back.SumSquaredError()
	assert.False(t, ok)
}

func TestResultUnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"no target", `{"predictors":["a"],"coefficients":[1],"means":[1],"nr_rows":3}`},
		{"coefficient count", `{"target":"y","predictors":["a"],"coefficients":[1,2],"means":[1],"nr_rows":3}`},
		{"mean count", `{"target":"y","predictors":["a"],"coefficients":[1],"means":[],"nr_rows":3}`},
		{"row counts", `{"target":"y","predictors":["a"],"coefficients":[1],"means":[1],"nr_rows":3,"nr_rows_skipped":4}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Result
			assert.Error(t, json.Unmarshal([]byte(tt.data), &r))
		})
	}
}

func TestModelBindSchema(t *testing.T) {
	m := fittedModel(t)
	s, err := dataset.NewSchema(
		dataset.Column{Name: "b", Type: dataset.Int},
		dataset.Column{Name: "a", Type: dataset.Float},
	)
	require.NoError(t, err)

	rd, err := m.Bind(s)
	require.NoError(t, err)
	assert.Equal(t, -1, rd.target)
	assert.Equal(t, []int{1, 0}, rd.predictors)
}
