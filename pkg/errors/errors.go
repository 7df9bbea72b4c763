// Package errors はプロジェクト全体のエラーハンドリングを提供します。
// すべてのエラーは cockroachdb/errors の上に構築され、スタックトレースと
// ユーザー向けのヒントを保持します。
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で結果や予測を要求した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("linreg: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は行列や入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("linreg: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "columns"
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// SingularMatrixError は逆行列計算中にピボット候補がすべてゼロだった場合のエラーです。
type SingularMatrixError struct {
	Op     string
	Column int // 非ゼロのピボットが見つからなかった列
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("linreg: %s: No solution. Matrix is singular (no nonzero pivot in column %d)", e.Op, e.Column)
}

// Is により errors.Is(err, ErrSingularMatrix) が成立します。
func (e *SingularMatrixError) Is(target error) bool {
	return target == ErrSingularMatrix
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SingularMatrixError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("column", e.Column).
		Str("type", "SingularMatrixError")
}

// NewSingularMatrixError は新しいSingularMatrixErrorを作成し、スタックトレースを付与します。
func NewSingularMatrixError(op string, column int) error {
	err := &SingularMatrixError{Op: op, Column: column}
	return errors.WithStack(err)
}

// InsufficientDataError は利用可能な行数が未知数の数以下の場合のエラーです。
// この場合、最小二乗解は一意に定まりません。
type InsufficientDataError struct {
	Op         string
	UsableRows int
	Unknowns   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("linreg: %s: too few rows to perform regression (%d usable rows, but degree of freedom of %d)",
		e.Op, e.UsableRows, e.Unknowns)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InsufficientDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("usable_rows", e.UsableRows).
		Int("unknowns", e.Unknowns).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError は新しいInsufficientDataErrorを作成し、スタックトレースを付与します。
func NewInsufficientDataError(op string, usableRows, unknowns int) error {
	err := &InsufficientDataError{Op: op, UsableRows: usableRows, Unknowns: unknowns}
	return errors.WithStack(err)
}

// CancelledError は呼び出し側がキャンセルを要求した場合のエラーです。
// 正しさの失敗ではありませんが、結果は生成されません。
type CancelledError struct {
	Op    string
	Stage string
	Row   int // キャンセルを検出した行 (0始まり)
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("linreg: %s: cancelled during %s at row %d: %v", e.Op, e.Stage, e.Row, e.Cause)
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *CancelledError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("stage", e.Stage).
		Int("row", e.Row).
		Str("type", "CancelledError")
}

// NewCancelledError は新しいCancelledErrorを作成します。causeには通常 ctx.Err() を渡します。
func NewCancelledError(op, stage string, row int, cause error) error {
	err := &CancelledError{Op: op, Stage: stage, Row: row, Cause: cause}
	return errors.WithStack(err)
}

// SourceMismatchError は再走査した行ソースが最初の走査と一致しない場合のエラーです。
// 行ソースは再開可能かつ順序が安定している必要があります。
type SourceMismatchError struct {
	Op     string
	Stage  string
	Row    int
	Reason string
}

func (e *SourceMismatchError) Error() string {
	return fmt.Sprintf("linreg: %s: row source changed between passes (%s, row %d): %s",
		e.Op, e.Stage, e.Row, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SourceMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("stage", e.Stage).
		Int("row", e.Row).
		Str("reason", e.Reason).
		Str("type", "SourceMismatchError")
}

// NewSourceMismatchError は新しいSourceMismatchErrorを作成し、スタックトレースを付与します。
func NewSourceMismatchError(op, stage string, row int, reason string) error {
	err := &SourceMismatchError{Op: op, Stage: stage, Row: row, Reason: reason}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("linreg: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ModelError はモデルの保存・読み込みなどに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("linreg: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("linreg: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// WithHint はユーザー向けの対処方法をエラーに付与します。
func WithHint(err error, hint string) error {
	return errors.WithHint(err, hint)
}

// Hints はエラーチェーン全体から付与されたヒントを取り出します。
func Hints(err error) []string {
	return errors.GetAllHints(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")

	// ErrNumericallyUnstable は逆行列に非有限値が含まれる場合のエラーです。
	ErrNumericallyUnstable = New("numerically unstable")
)
