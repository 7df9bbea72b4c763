package model

import (
	"context"

	"github.com/YuminosukeSato/linreg/dataset"
)

// Predictor は行ソースの各行に対して予測値を返すモデルです。
type Predictor interface {
	// Predict returns one prediction per row, in source order. Rows that
	// cannot be predicted yield missing cells.
	Predict(ctx context.Context, src dataset.Source) ([]dataset.Cell, error)
}

// Scorer はモデルの決定係数（R²）を計算します。
type Scorer interface {
	Score(ctx context.Context, src dataset.Source) (float64, error)
}

// Regressor combines prediction and scoring.
type Regressor interface {
	Predictor
	Scorer
}

// Transformer はカラムの統計量を学習し、行ソースを変換します。
type Transformer interface {
	// Fit learns the statistics of columns from one pass over src.
	Fit(ctx context.Context, src dataset.Source, columns []string) error

	// Transform wraps src so that rows are transformed while they are read.
	Transform(src dataset.Source) (dataset.Source, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
