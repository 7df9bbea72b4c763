package linear

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/linreg/core/model"
	"github.com/YuminosukeSato/linreg/core/parallel"
	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/metrics"
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// parallelThreshold 以下の行数では PredictMatrix を逐次処理します。
const parallelThreshold = 1000

// Model は学習結果を使って予測を行います。
type Model struct {
	result *Result
}

var _ model.Regressor = (*Model)(nil)

// NewModel creates a predictor from a learning result.
func NewModel(res *Result) (*Model, error) {
	if res == nil {
		return nil, errors.NewNotFittedError(modelName, "NewModel")
	}
	return &Model{result: res}, nil
}

// Result returns the underlying learning result.
func (m *Model) Result() *Result { return m.result }

// Bind resolves the predictor columns of the model against schema. The
// target column does not have to be present.
func (m *Model) Bind(schema *dataset.Schema) (*ResolvedDesign, error) {
	if schema == nil {
		return nil, errors.NewValidationError("schema", "schema must not be nil", nil)
	}
	rd := &ResolvedDesign{
		target:     -1,
		predictors: make([]int, len(m.result.predictors)),
		targetName: m.result.target,
		names:      m.result.Predictors(),
	}
	for k, n := range m.result.predictors {
		idx, err := numericColumn(schema, "predictors", n)
		if err != nil {
			return nil, err
		}
		rd.predictors[k] = idx
	}
	if idx, ok := schema.Index(m.result.target); ok && schema.Column(idx).Type.Numeric() {
		rd.target = idx
	}
	return rd, nil
}

// PredictRow returns the prediction for one row. The result is missing if
// any predictor of the row is missing.
func (m *Model) PredictRow(row dataset.Row, rd *ResolvedDesign) dataset.Cell {
	pred := m.result.offset
	for k, idx := range rd.predictors {
		c := row.Cells[idx]
		if c.Missing() {
			return dataset.MissingCell()
		}
		pred += m.result.coefficients[k] * c.Float()
	}
	return dataset.Value(pred)
}

// Predict returns one prediction per row of src, in source order.
func (m *Model) Predict(ctx context.Context, src dataset.Source) ([]dataset.Cell, error) {
	var out []dataset.Cell
	err := m.each(ctx, src, func(row dataset.Row, rd *ResolvedDesign) {
		out = append(out, m.PredictRow(row, rd))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PredictMatrix predicts every row of X, whose columns are the predictors
// in design order. Large inputs are split across CPUs.
func (m *Model) PredictMatrix(X mat.Matrix) (*mat.VecDense, error) {
	r, c := X.Dims()
	if c != len(m.result.coefficients) {
		return nil, errors.NewDimensionError("Model.PredictMatrix", len(m.result.coefficients), c, 1)
	}
	out := mat.NewVecDense(r, nil)
	coef := m.result.coefficients
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := m.result.offset
			for j := 0; j < c; j++ {
				pred += coef[j] * X.At(i, j)
			}
			out.SetVec(i, pred)
		}
	})
	return out, nil
}

// Score returns the coefficient of determination (R²) over the rows of src
// whose target and prediction are both present.
func (m *Model) Score(ctx context.Context, src dataset.Source) (float64, error) {
	if src == nil {
		return 0, errors.NewValidationError("source", "source must not be nil", nil)
	}
	rd, err := m.Bind(src.Schema())
	if err != nil {
		return 0, err
	}
	if rd.target < 0 {
		return 0, errors.NewValidationError("target", "column not found in input", m.result.target)
	}

	var yTrue, yPred []float64
	err = m.each(ctx, src, func(row dataset.Row, rd *ResolvedDesign) {
		t := row.Cells[rd.target]
		p := m.PredictRow(row, rd)
		if t.Missing() || p.Missing() {
			return
		}
		yTrue = append(yTrue, t.Float())
		yPred = append(yPred, p.Float())
	})
	if err != nil {
		return 0, err
	}
	if len(yTrue) == 0 {
		return 0, errors.NewModelError("Model.Score", "no rows with target and prediction", errors.ErrEmptyData)
	}
	return metrics.R2Score(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yPred), yPred))
}

func (m *Model) each(ctx context.Context, src dataset.Source, fn func(dataset.Row, *ResolvedDesign)) (err error) {
	defer errors.Recover(&err, "Model.Predict")

	if src == nil {
		return errors.NewValidationError("source", "source must not be nil", nil)
	}
	rd, err := m.Bind(src.Schema())
	if err != nil {
		return err
	}
	it, err := src.Iterator()
	if err != nil {
		return err
	}
	defer dataset.CloseIterator(it, &err)

	done := ctx.Done()
	width := src.Schema().Len()
	for i := 0; it.Next(); i++ {
		select {
		case <-done:
			return errors.NewCancelledError("Model.Predict", "predict", i, ctx.Err())
		default:
		}
		row := it.Row()
		if len(row.Cells) != width {
			return errors.NewSourceMismatchError("Model.Predict", "predict", i, "row width differs from schema")
		}
		fn(row, rd)
	}
	return it.Err()
}
