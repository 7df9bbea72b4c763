package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// PanicError は行ソースなど呼び出し側のコードが panic した場合のエラーです。
// 学習や予測はこのエラーで失敗し、プロセスは停止しません。
type PanicError struct {
	Operation string      // panic を回収した操作
	Value     interface{} // panic に渡された値
	Stack     string      // panic 時点のスタック
	Prior     error       // panic の前にすでに返されていたエラー
}

func (e *PanicError) Error() string {
	if e.Prior != nil {
		return fmt.Sprintf("linreg: %s: panic: %v (after error: %v)", e.Operation, e.Value, e.Prior)
	}
	return fmt.Sprintf("linreg: %s: panic: %v", e.Operation, e.Value)
}

// Unwrap returns the earlier error if there was one, otherwise the panic
// value when it is an error.
func (e *PanicError) Unwrap() error {
	if e.Prior != nil {
		return e.Prior
	}
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic", fmt.Sprint(e.Value)).
		Str("stack", e.Stack).
		Str("type", "PanicError")
}

// Recover は panic を PanicError に変換して *err に設定します。
// 名前付きの戻り値と defer で使います。
//
//	func (l *Learner) Fit(...) (res *Result, err error) {
//	    defer errors.Recover(&err, "Learner.Fit")
//	    ...
//	}
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	*err = &PanicError{
		Operation: operation,
		Value:     r,
		Stack:     string(debug.Stack()),
		Prior:     *err,
	}
}
