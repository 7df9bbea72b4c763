package linear

import (
	"context"

	"github.com/YuminosukeSato/linreg/core/matrix"
	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/pkg/errors"
	"github.com/YuminosukeSato/linreg/pkg/log"
)

// moments は集計パスの結果です。
type moments struct {
	ata         *matrix.Dense // (p+1)x(p+1) の AᵗA、x₀ ≡ 1
	rawSums     []float64     // 説明変数ごとの合計 (len p)
	mask        *SkipMask
	rowsTotal   int
	rowsSkipped int
}

// usable returns the number of rows that entered the sums.
func (m *moments) usable() int { return m.rowsTotal - m.rowsSkipped }

// means returns rawSums divided by the number of usable rows.
func (m *moments) means() []float64 {
	out := make([]float64, len(m.rawSums))
	n := float64(m.usable())
	for k, s := range m.rawSums {
		out[k] = s / n
	}
	return out
}

// summer adds terms into a slice of running sums.
type summer interface {
	add(i int, v float64)
	values() []float64
}

type plainSum []float64

func (s plainSum) add(i int, v float64) { s[i] += v }
func (s plainSum) values() []float64    { return s }

// neumaierSum is Kahan-Neumaier compensated summation.
type neumaierSum struct {
	sum, comp []float64
}

func newNeumaierSum(n int) *neumaierSum {
	return &neumaierSum{sum: make([]float64, n), comp: make([]float64, n)}
}

func (s *neumaierSum) add(i int, v float64) {
	t := s.sum[i] + v
	if abs(s.sum[i]) >= abs(v) {
		s.comp[i] += (s.sum[i] - t) + v
	} else {
		s.comp[i] += (v - t) + s.sum[i]
	}
	s.sum[i] = t
}

func (s *neumaierSum) values() []float64 {
	out := make([]float64, len(s.sum))
	for i := range s.sum {
		out[i] = s.sum[i] + s.comp[i]
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func newSummer(n int, compensated bool) summer {
	if compensated {
		return newNeumaierSum(n)
	}
	return make(plainSum, n)
}

// missingValueReporter logs the first skipped row at WARN and the rest at
// DEBUG. One reporter per solve.
type missingValueReporter struct {
	logger log.Logger
	warned bool
}

func (r *missingValueReporter) skipped(row int, key string) {
	if !r.warned {
		r.warned = true
		r.logger.Warn("Row contains missing values, skipping it. Suppress further warnings.",
			log.RowKeyKey, key, log.RowIndexKey, row)
		return
	}
	if r.logger.Enabled(context.Background(), log.LevelDebug) {
		r.logger.Debug("Row contains missing values, skipping it.",
			log.RowKeyKey, key, log.RowIndexKey, row)
	}
}

// accumulate は1パス目を実行し、AᵗA と説明変数の合計を集計します。
//
// ターゲットまたは説明変数のいずれかが欠損している行はスキップされ、
// SkipMask に記録されます。利用可能な行数が未知数 p+1 以下の場合は
// InsufficientDataError を返します。
func accumulate(ctx context.Context, src dataset.Source, design *ResolvedDesign, mon *monitor, cfg *config) (m *moments, err error) {
	p := design.NumPredictors()
	n := p + 1

	pass, err := startPass(ctx, StageAccumulate, src, mon)
	if err != nil {
		return nil, err
	}
	defer pass.closeInto(&err)

	// 上三角のみ計算し、最後に下三角へ写す
	upper := newSummer(n*n, cfg.compensated)
	sums := newSummer(p, cfg.compensated)
	buf := make([]float64, n)
	mask := newSkipMask()
	reporter := &missingValueReporter{logger: cfg.logger}

	for pass.next() {
		row := pass.row
		if _, ok := design.load(row, buf); !ok {
			mask.grow(true)
			reporter.skipped(pass.index, row.Key)
			continue
		}
		mask.grow(false)
		for i := 0; i < n; i++ {
			bi := buf[i]
			for j := i; j < n; j++ {
				upper.add(i*n+j, bi*buf[j])
			}
		}
		for k := 0; k < p; k++ {
			sums.add(k, buf[k+1])
		}
	}
	if pass.err != nil {
		return nil, pass.err
	}
	mask.seal()
	mon.passDone(pass.rows())

	ata, err := matrix.NewDense(n, n, upper.values())
	if err != nil {
		return nil, err
	}
	ata.MirrorUpper()

	m = &moments{
		ata:         ata,
		rawSums:     sums.values(),
		mask:        mask,
		rowsTotal:   mask.Len(),
		rowsSkipped: mask.Count(),
	}
	if m.usable() <= n {
		return nil, errors.NewInsufficientDataError("Learner.Fit", m.usable(), n)
	}
	return m, nil
}
