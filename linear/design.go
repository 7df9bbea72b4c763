package linear

import (
	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// DesignSpec は回帰に使うカラムを指定します。
//
// IncludeAll が true の場合、Predictors は無視され、ターゲット以外の
// 数値カラムがスキーマ順にすべて説明変数になります。
type DesignSpec struct {
	Target     string
	Predictors []string
	IncludeAll bool
}

// Validate checks the design without looking at any data.
func (d DesignSpec) Validate() error {
	if d.Target == "" {
		return errors.NewValidationError("target", "no target column selected", d.Target)
	}
	if d.IncludeAll {
		return nil
	}
	if len(d.Predictors) == 0 {
		return errors.NewValidationError("predictors", "no predictor columns selected", d.Predictors)
	}
	seen := make(map[string]struct{}, len(d.Predictors))
	for _, p := range d.Predictors {
		if p == "" {
			return errors.NewValidationError("predictors", "predictor name must not be empty", d.Predictors)
		}
		if p == d.Target {
			return errors.NewValidationError("predictors", "target column must not be a predictor", p)
		}
		if _, dup := seen[p]; dup {
			return errors.NewValidationError("predictors", "duplicate predictor", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// ResolvedDesign は DesignSpec をスキーマ上のカラム位置に解決したものです。
// 1回の学習の間は変更されません。
type ResolvedDesign struct {
	target     int
	predictors []int
	targetName string
	names      []string
}

// Resolve validates the design and maps it to column positions of schema.
// Every named column must exist and be numeric.
func (d DesignSpec) Resolve(schema *dataset.Schema) (*ResolvedDesign, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, errors.NewValidationError("schema", "schema must not be nil", nil)
	}

	target, err := numericColumn(schema, "target", d.Target)
	if err != nil {
		return nil, err
	}

	names := d.Predictors
	if d.IncludeAll {
		names = nil
		for i := 0; i < schema.Len(); i++ {
			c := schema.Column(i)
			if i != target && c.Type.Numeric() {
				names = append(names, c.Name)
			}
		}
		if len(names) == 0 {
			return nil, errors.NewValidationError("predictors", "no numeric column besides the target", schema.Names())
		}
	}

	rd := &ResolvedDesign{
		target:     target,
		predictors: make([]int, len(names)),
		targetName: d.Target,
		names:      append([]string(nil), names...),
	}
	for k, n := range names {
		idx, err := numericColumn(schema, "predictors", n)
		if err != nil {
			return nil, err
		}
		rd.predictors[k] = idx
	}
	return rd, nil
}

func numericColumn(schema *dataset.Schema, param, name string) (int, error) {
	idx, ok := schema.Index(name)
	if !ok {
		return 0, errors.NewValidationError(param, "column not found in input", name)
	}
	if !schema.Column(idx).Type.Numeric() {
		return 0, errors.NewValidationError(param, "column is not numeric", name)
	}
	return idx, nil
}

// NumPredictors returns p.
func (r *ResolvedDesign) NumPredictors() int { return len(r.predictors) }

// Target returns the target column name.
func (r *ResolvedDesign) Target() string { return r.targetName }

// Predictors returns the predictor names in design order.
func (r *ResolvedDesign) Predictors() []string { return append([]string(nil), r.names...) }

// load fills buf with 1 followed by the predictor values and returns the
// target. ok is false if the target or any predictor is missing.
func (r *ResolvedDesign) load(row dataset.Row, buf []float64) (target float64, ok bool) {
	t := row.Cells[r.target]
	if t.Missing() {
		return 0, false
	}
	buf[0] = 1.0
	for k, idx := range r.predictors {
		c := row.Cells[idx]
		if c.Missing() {
			return 0, false
		}
		buf[k+1] = c.Float()
	}
	return t.Float(), true
}
