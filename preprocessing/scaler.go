// Package preprocessing は行ソースを変換するスケーラーを提供します。
//
// スケーラーはデータをメモリに載せず、Source を1回走査して統計量を
// 求め、Transform は元の Source を包んで読み出し時に値を変換します。
// 学習前にデータを正規化すると、AᵗA の逆行列が数値的に安定します。
package preprocessing

import (
	"context"
	"fmt"
	"math"

	"github.com/YuminosukeSato/linreg/core/model"
	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/pkg/errors"
)

var (
	_ model.Transformer     = (*StandardScaler)(nil)
	_ model.Transformer     = (*MinMaxScaler)(nil)
	_ model.ParameterGetter = (*StandardScaler)(nil)
	_ model.ParameterGetter = (*MinMaxScaler)(nil)
)

// minScale 未満の標準偏差や範囲は 1 とみなす（ゼロ除算を避ける）
const minScale = 1e-8

// StandardScaler は指定カラムを平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	// Columns は変換対象のカラム名
	Columns []string

	// Mean は各カラムの平均値
	Mean []float64

	// Scale は各カラムの標準偏差
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(ctx, src, []string{"x1", "x2"})
//	scaled, err := scaler.Transform(src)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は Source を1回走査し、欠損でないセルから平均と標準偏差を求める。
// 平均・分散は Welford 法で逐次更新する。
func (s *StandardScaler) Fit(ctx context.Context, src dataset.Source, columns []string) error {
	idx, err := sourceColumns(src, columns)
	if err != nil {
		return err
	}
	c := len(idx)
	count := make([]int, c)
	mean := make([]float64, c)
	m2 := make([]float64, c)

	rows, err := scan(ctx, src, func(row dataset.Row) {
		for k, j := range idx {
			cell := row.Cells[j]
			if cell.Missing() {
				continue
			}
			count[k]++
			x := cell.Float()
			delta := x - mean[k]
			mean[k] += delta / float64(count[k])
			m2[k] += delta * (x - mean[k])
		}
	})
	if err != nil {
		return err
	}
	for k := range idx {
		if count[k] == 0 {
			return errors.NewModelError("StandardScaler.Fit",
				fmt.Sprintf("column %q has no values", columns[k]), errors.ErrEmptyData)
		}
	}

	fitMean := make([]float64, c)
	fitScale := make([]float64, c)
	for k := range idx {
		if s.WithMean {
			fitMean[k] = mean[k]
		}
		fitScale[k] = 1.0
		if s.WithStd {
			// 母標準偏差
			std := math.Sqrt(m2[k] / float64(count[k]))
			if std >= minScale {
				fitScale[k] = std
			}
		}
	}

	s.state.Commit(c, rows, func() {
		s.Columns = append([]string(nil), columns...)
		s.Mean = fitMean
		s.Scale = fitScale
	})
	return nil
}

// Transform は Source を包み、読み出し時に (x - mean) / scale を適用する
func (s *StandardScaler) Transform(src dataset.Source) (dataset.Source, error) {
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	return wrap(src, s.Columns, func(k int, x float64) float64 {
		return (x - s.Mean[k]) / s.Scale[k]
	})
}

// InverseValue は k 番目のカラムの標準化された値を元のスケールに戻す
func (s *StandardScaler) InverseValue(k int, v float64) float64 {
	return v*s.Scale[k] + s.Mean[k]
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, columns=%v)",
		s.WithMean, s.WithStd, s.Columns)
}

// MinMaxScaler は指定カラムを FeatureRange の範囲に線形変換する
type MinMaxScaler struct {
	state *model.StateManager

	// Columns は変換対象のカラム名
	Columns []string

	// DataMin, DataMax は学習データの最小値と最大値
	DataMin []float64
	DataMax []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault は [0, 1] に変換するMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0, 1})
}

// Fit は Source を1回走査し、欠損でないセルの最小値と最大値を求める
func (m *MinMaxScaler) Fit(ctx context.Context, src dataset.Source, columns []string) error {
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	idx, err := sourceColumns(src, columns)
	if err != nil {
		return err
	}
	c := len(idx)
	lo := make([]float64, c)
	hi := make([]float64, c)
	for k := range lo {
		lo[k] = math.Inf(1)
		hi[k] = math.Inf(-1)
	}

	rows, err := scan(ctx, src, func(row dataset.Row) {
		for k, j := range idx {
			cell := row.Cells[j]
			if cell.Missing() {
				continue
			}
			lo[k] = math.Min(lo[k], cell.Float())
			hi[k] = math.Max(hi[k], cell.Float())
		}
	})
	if err != nil {
		return err
	}
	for k := range idx {
		if math.IsInf(lo[k], 1) {
			return errors.NewModelError("MinMaxScaler.Fit",
				fmt.Sprintf("column %q has no values", columns[k]), errors.ErrEmptyData)
		}
	}

	m.state.Commit(c, rows, func() {
		m.Columns = append([]string(nil), columns...)
		m.DataMin = lo
		m.DataMax = hi
	})
	return nil
}

// Transform は Source を包み、読み出し時に各カラムを FeatureRange に写す
func (m *MinMaxScaler) Transform(src dataset.Source) (dataset.Source, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}
	lo, hi := m.FeatureRange[0], m.FeatureRange[1]
	return wrap(src, m.Columns, func(k int, x float64) float64 {
		span := m.DataMax[k] - m.DataMin[k]
		if span < minScale {
			span = 1
		}
		return lo + (x-m.DataMin[k])/span*(hi-lo)
	})
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=%v)", m.FeatureRange)
}

func sourceColumns(src dataset.Source, columns []string) ([]int, error) {
	if src == nil {
		return nil, errors.NewValidationError("source", "source must not be nil", nil)
	}
	return numericColumns(src.Schema(), columns)
}

func numericColumns(schema *dataset.Schema, columns []string) ([]int, error) {
	if len(columns) == 0 {
		return nil, errors.NewValidationError("columns", "no columns selected", columns)
	}
	idx := make([]int, len(columns))
	for k, name := range columns {
		j, ok := schema.Index(name)
		if !ok {
			return nil, errors.NewValidationError("columns", "column not found in input", name)
		}
		if !schema.Column(j).Type.Numeric() {
			return nil, errors.NewValidationError("columns", "column is not numeric", name)
		}
		idx[k] = j
	}
	return idx, nil
}

// scan reads every row of src once and returns the row count.
func scan(ctx context.Context, src dataset.Source, fn func(dataset.Row)) (n int, err error) {
	defer errors.Recover(&err, "scaler.Fit")

	it, err := src.Iterator()
	if err != nil {
		return 0, err
	}
	defer dataset.CloseIterator(it, &err)

	done := ctx.Done()
	width := src.Schema().Len()
	for it.Next() {
		select {
		case <-done:
			return n, errors.NewCancelledError("scaler.Fit", "scan", n, ctx.Err())
		default:
		}
		row := it.Row()
		if len(row.Cells) != width {
			return n, errors.NewDimensionError("scaler.Fit", width, len(row.Cells), 1)
		}
		fn(row)
		n++
	}
	if err := it.Err(); err != nil {
		return n, err
	}
	if n == 0 {
		return 0, errors.NewModelError("scaler.Fit", "empty data", errors.ErrEmptyData)
	}
	return n, nil
}
