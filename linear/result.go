package linear

import (
	"encoding/json"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// Result は学習結果です。生成後は変更されず、アクセサはコピーを返します。
type Result struct {
	target       string
	predictors   []string
	offset       float64
	coefficients []float64
	means        []float64
	rowsTotal    int
	rowsSkipped  int
	sse          float64
	hasSSE       bool
}

// Target returns the target column name.
func (r *Result) Target() string { return r.target }

// Predictors returns the predictor names in design order.
func (r *Result) Predictors() []string { return append([]string(nil), r.predictors...) }

// Offset returns the intercept.
func (r *Result) Offset() float64 { return r.offset }

// Coefficients returns one coefficient per predictor, in design order.
func (r *Result) Coefficients() []float64 { return append([]float64(nil), r.coefficients...) }

// Means returns the mean of each predictor over the rows used for learning.
func (r *Result) Means() []float64 { return append([]float64(nil), r.means...) }

// RowsTotal returns the number of rows read from the source.
func (r *Result) RowsTotal() int { return r.rowsTotal }

// RowsSkipped returns the number of rows skipped because of missing values.
func (r *Result) RowsSkipped() int { return r.rowsSkipped }

// SumSquaredError returns the sum of squared residuals over the learning
// rows. ok is false if the error pass was not requested.
func (r *Result) SumSquaredError() (sse float64, ok bool) { return r.sse, r.hasSSE }

// MeanOf returns the mean of the named predictor.
func (r *Result) MeanOf(name string) (float64, bool) {
	for k, p := range r.predictors {
		if p == name {
			return r.means[k], true
		}
	}
	return 0, false
}

// Params returns the parameters keyed by column: the offset under the target
// name and each coefficient under its predictor name.
func (r *Result) Params() map[string]float64 {
	params := make(map[string]float64, len(r.predictors)+1)
	params[r.target] = r.offset
	for k, p := range r.predictors {
		params[p] = r.coefficients[k]
	}
	return params
}

// resultRecord is the flat persisted form of a Result.
type resultRecord struct {
	Target       string             `json:"target"`
	Predictors   []string           `json:"predictors"`
	Offset       float64            `json:"offset"`
	Coefficients []float64          `json:"coefficients"`
	Means        []float64          `json:"means"`
	RowsTotal    int                `json:"nr_rows"`
	RowsSkipped  int                `json:"nr_rows_skipped"`
	Error        *float64           `json:"error,omitempty"`
	Params       map[string]float64 `json:"params,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r *Result) MarshalJSON() ([]byte, error) {
	rec := resultRecord{
		Target:       r.target,
		Predictors:   r.predictors,
		Offset:       r.offset,
		Coefficients: r.coefficients,
		Means:        r.means,
		RowsTotal:    r.rowsTotal,
		RowsSkipped:  r.rowsSkipped,
		Params:       r.Params(),
	}
	if r.hasSSE {
		sse := r.sse
		rec.Error = &sse
	}
	return json.Marshal(rec)
}

// UnmarshalJSON implements json.Unmarshaler. The params map is ignored; it
// is derived from the other fields.
func (r *Result) UnmarshalJSON(data []byte) error {
	var rec resultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return errors.NewModelError("Result.UnmarshalJSON", "decode", err)
	}
	p := len(rec.Predictors)
	if rec.Target == "" || p == 0 {
		return errors.NewModelError("Result.UnmarshalJSON", "missing target or predictors", nil)
	}
	if len(rec.Coefficients) != p {
		return errors.NewDimensionError("Result.UnmarshalJSON", p, len(rec.Coefficients), 0)
	}
	if len(rec.Means) != p {
		return errors.NewDimensionError("Result.UnmarshalJSON", p, len(rec.Means), 0)
	}
	if rec.RowsSkipped < 0 || rec.RowsSkipped > rec.RowsTotal {
		return errors.NewModelError("Result.UnmarshalJSON", "inconsistent row counts", nil)
	}

	*r = Result{
		target:       rec.Target,
		predictors:   rec.Predictors,
		offset:       rec.Offset,
		coefficients: rec.Coefficients,
		means:        rec.Means,
		rowsTotal:    rec.RowsTotal,
		rowsSkipped:  rec.RowsSkipped,
	}
	if rec.Error != nil {
		r.sse = *rec.Error
		r.hasSSE = true
	}
	return nil
}
