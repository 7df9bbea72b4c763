// Package log defines standard attribute keys for the regression learner.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that log lines can be filtered and aggregated.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "LinearRegression".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "save", "load"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// StageKey identifies the pass of a multi-pass solve:
	// "accumulate", "invert", "solve", "error".
	StageKey = "ml.stage"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows read from the source.
	SamplesKey = "data.samples"

	// SkippedKey indicates the number of rows skipped because of missing values.
	SkippedKey = "data.rows_skipped"

	// FeaturesKey indicates the number of predictor columns.
	FeaturesKey = "data.features"

	// TargetKey names the target column.
	TargetKey = "data.target"

	// RowKeyKey is the key of an individual row.
	RowKeyKey = "row.key"

	// RowIndexKey is the 0-based position of a row in source order.
	RowIndexKey = "row.index"

	// ProgressKey is the fraction of a fit completed, -1 while unknown.
	ProgressKey = "ml.progress"
)

// Performance and Result Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// SSEKey records the sum of squared errors on the training data.
	SSEKey = "metrics.sse"

	// R2ScoreKey records the coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// CodecKey names the compression codec used for persistence.
	CodecKey = "persist.codec"

	// BytesKey records the size of a persisted payload.
	BytesKey = "persist.bytes"

	// PathKey is the file a model was written to or read from.
	PathKey = "persist.path"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving an issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationSave    = "save"
	OperationLoad    = "load"

	ErrorSingularMatrix    = "SINGULAR_MATRIX"
	ErrorInsufficientData  = "INSUFFICIENT_DATA"
	ErrorNumericalInstable = "NUMERICALLY_UNSTABLE"
	ErrorCancelled         = "CANCELLED"
)
