// Package linear は欠損値を含む行データを逐次読み込み、正規方程式で
// 線形回帰モデルを学習します。
//
// 学習は次のパスで構成されます。
//
//  1. 集計: AᵗA と説明変数の合計を1行ずつ集計し、欠損行を記録する
//  2. 逆行列: AᵗA をピボット選択付きガウス・ジョルダン法で反転する
//  3. 求解: 同じ行を再走査して係数を求める
//  4. 誤差 (任意): 学習データ上の二乗誤差の和を求める
//
// データはパスごとに Source から読み直されるため、メモリに載らない
// 大きさのテーブルも学習できます。
package linear

import (
	"context"
	"sync"
	"time"

	"github.com/YuminosukeSato/linreg/core/matrix"
	"github.com/YuminosukeSato/linreg/core/model"
	"github.com/YuminosukeSato/linreg/dataset"
	"github.com/YuminosukeSato/linreg/pkg/errors"
	"github.com/YuminosukeSato/linreg/pkg/log"
)

const modelName = "LinearRegression"

// Learner は線形回帰の学習器です。
//
// 同じ Learner に対する Fit の同時呼び出しは直列化されます。
// 最後に成功した学習の結果は Result で取得できます。
type Learner struct {
	cfg    *config
	state  *model.StateManager
	fitMu  sync.Mutex
	result *Result
}

// NewLearner creates a learner.
//
// Example:
//
//	l := linear.NewLearner(linear.WithComputeError(true))
//	res, err := l.Fit(ctx, table, linear.DesignSpec{Target: "y", Predictors: []string{"x"}})
func NewLearner(opts ...Option) *Learner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Learner{
		cfg:   cfg,
		state: model.NewStateManager(),
	}
}

// Fit learns a linear model of design.Target on design.Predictors from src.
//
// src is read two or three times and must return the same rows in the same
// order each time. Rows with a missing target or predictor are skipped. A
// failed Fit leaves the previous result of the learner untouched.
func (l *Learner) Fit(ctx context.Context, src dataset.Source, design DesignSpec) (res *Result, err error) {
	defer errors.Recover(&err, "Learner.Fit")

	l.fitMu.Lock()
	defer l.fitMu.Unlock()

	if src == nil {
		return nil, errors.NewValidationError("source", "source must not be nil", nil)
	}
	rd, err := design.Resolve(src.Schema())
	if err != nil {
		return nil, err
	}

	logger := l.cfg.logger.With(
		log.ModelNameKey, modelName,
		log.OperationKey, log.OperationFit,
		log.TargetKey, rd.Target(),
	)
	start := time.Now()
	logger.Debug("Training started", log.FeaturesKey, rd.NumPredictors())

	res, err = l.solve(ctx, src, rd, logger.With(log.ComponentKey, "linear"))
	if err != nil {
		logger.Error("Training failed", err, log.ErrorCodeKey, errorCode(err))
		return nil, err
	}

	fields := []any{
		log.SamplesKey, res.rowsTotal,
		log.SkippedKey, res.rowsSkipped,
		log.FeaturesKey, len(res.predictors),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	if res.hasSSE {
		fields = append(fields, log.SSEKey, res.sse)
	}
	logger.Info("Training completed", fields...)

	l.state.Commit(len(res.predictors), res.rowsTotal-res.rowsSkipped, func() {
		l.result = res
	})
	return res, nil
}

// Result returns the result of the last successful Fit.
func (l *Learner) Result() (*Result, error) {
	var res *Result
	l.state.Read(func(st model.ModelState) {
		if st.Fitted {
			res = l.result
		}
	})
	if res == nil {
		return nil, errors.NewNotFittedError(modelName, "Result")
	}
	return res, nil
}

// State returns the fitted flag, the dimensions of the last successful fit
// and the number of successful fits.
func (l *Learner) State() model.ModelState {
	return l.state.State()
}

// Model returns a predictor for the result of the last successful Fit.
func (l *Learner) Model() (*Model, error) {
	res, err := l.Result()
	if err != nil {
		return nil, err
	}
	return NewModel(res)
}

// Reset discards the learned result.
func (l *Learner) Reset() {
	l.fitMu.Lock()
	defer l.fitMu.Unlock()
	l.state.Reset(func() {
		l.result = nil
	})
}

func (l *Learner) solve(ctx context.Context, src dataset.Source, rd *ResolvedDesign, logger log.Logger) (*Result, error) {
	cfg := *l.cfg
	cfg.logger = logger
	mon := newMonitor(cfg.progress, src, cfg.computeError)

	m, err := accumulate(ctx, src, rd, mon, &cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Accumulation finished",
		log.StageKey, string(StageAccumulate),
		log.SamplesKey, m.rowsTotal,
		log.SkippedKey, m.rowsSkipped,
	)

	inv, err := invert(m.ata)
	if err != nil {
		return nil, err
	}

	multipliers, err := solveMultipliers(ctx, src, rd, m, inv, mon, &cfg)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("regression coefficients", multipliers); err != nil {
		return nil, err
	}

	res := &Result{
		target:       rd.Target(),
		predictors:   rd.Predictors(),
		offset:       multipliers[0],
		coefficients: append([]float64(nil), multipliers[1:]...),
		means:        m.means(),
		rowsTotal:    m.rowsTotal,
		rowsSkipped:  m.rowsSkipped,
	}

	if cfg.computeError {
		sse, err := sumSquaredError(ctx, src, rd, m, res, mon, &cfg)
		if err != nil {
			return nil, err
		}
		res.sse = sse
		res.hasSSE = true
	}
	return res, nil
}

// invert は AᵗA の逆行列を求めます。非有限値を含む AᵗA、特異行列、
// 非有限値を含む結果は改善のヒント付きの NumericallyUnstableError に
// なります。AᵗA の検査は反転より先に行います。
func invert(ata *matrix.Dense) (*matrix.Dense, error) {
	n, _ := ata.Dims()
	if err := errors.CheckMatrix("normal equations matrix", ata, n, n); err != nil {
		return nil, err
	}
	inv, err := matrix.Inverse(ata)
	if err != nil {
		if errors.Is(err, errors.ErrSingularMatrix) {
			return nil, errors.NewNumericallyUnstableError("inverse matrix", err, nil, -1, -1)
		}
		return nil, err
	}
	if err := errors.CheckMatrix("inverse matrix", inv, n, n); err != nil {
		return nil, err
	}
	return inv, nil
}

// replay は集計パスで使われた行だけをもう一度走査します。
// 行数の違いや、集計時にはなかった欠損は SourceMismatchError になります。
func replay(ctx context.Context, stage Stage, src dataset.Source, rd *ResolvedDesign, m *moments, mon *monitor,
	fn func(buf []float64, target float64)) (err error) {
	pass, err := startPass(ctx, stage, src, mon)
	if err != nil {
		return err
	}
	defer pass.closeInto(&err)

	buf := make([]float64, rd.NumPredictors()+1)
	for pass.next() {
		i := pass.index
		if i >= m.rowsTotal {
			return errors.NewSourceMismatchError("Learner.Fit", string(stage), i,
				"source returned more rows than in the accumulation pass")
		}
		if m.mask.Skipped(i) {
			continue
		}
		target, ok := rd.load(pass.row, buf)
		if !ok {
			return errors.NewSourceMismatchError("Learner.Fit", string(stage), i,
				"row has missing values that were not present in the accumulation pass")
		}
		fn(buf, target)
	}
	if pass.err != nil {
		return pass.err
	}
	if pass.rows() != m.rowsTotal {
		return errors.NewSourceMismatchError("Learner.Fit", string(stage), pass.rows(),
			"source returned fewer rows than in the accumulation pass")
	}
	mon.passDone(pass.rows())
	return nil
}

// solveMultipliers は multipliers[i] += (Σⱼ inv[i][j]·buf[j])·target を
// 全ての使用行について計算します。multipliers[0] が切片です。
func solveMultipliers(ctx context.Context, src dataset.Source, rd *ResolvedDesign, m *moments, inv *matrix.Dense,
	mon *monitor, cfg *config) ([]float64, error) {
	n := rd.NumPredictors() + 1
	sums := newSummer(n, cfg.compensated)

	err := replay(ctx, StageSolve, src, rd, m, mon, func(buf []float64, target float64) {
		for i := 0; i < n; i++ {
			row := inv.RawRow(i)
			var s float64
			for j, v := range row {
				s += v * buf[j]
			}
			sums.add(i, s*target)
		}
	})
	if err != nil {
		return nil, err
	}
	return sums.values(), nil
}

// sumSquaredError は学習に使った行の残差平方和を求めます。
func sumSquaredError(ctx context.Context, src dataset.Source, rd *ResolvedDesign, m *moments, res *Result,
	mon *monitor, cfg *config) (float64, error) {
	sse := newSummer(1, cfg.compensated)
	err := replay(ctx, StageError, src, rd, m, mon, func(buf []float64, target float64) {
		pred := res.offset
		for k, c := range res.coefficients {
			pred += c * buf[k+1]
		}
		d := target - pred
		sse.add(0, d*d)
	})
	if err != nil {
		return 0, err
	}
	return sse.values()[0], nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, errors.ErrSingularMatrix):
		return log.ErrorSingularMatrix
	case errors.Is(err, errors.ErrNumericallyUnstable):
		return log.ErrorNumericalInstable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return log.ErrorCancelled
	}
	var insufficient *errors.InsufficientDataError
	if errors.As(err, &insufficient) {
		return log.ErrorInsufficientData
	}
	return "UNKNOWN"
}
