// Package log は学習器と変換器が使う構造化ログのインターフェースです。
//
// キーと値を交互に渡す log/slog 互換の API で、既定の実装は zerolog、
// SetupLogger で log/slog (Cloud Logging 形式) に切り替えられます。
// 属性キーは attributes.go の定数を使います。
//
//	logger := log.GetLogger().With(log.ModelNameKey, "LinearRegression")
//	logger.Warn("Row contains missing values, skipping it.",
//	    log.RowKeyKey, row.Key,
//	    log.RowIndexKey, i,
//	)
package log

import (
	"context"
)

// Logger is the logging surface used throughout the module.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error logs at error level. A leading error value is logged under
	// ErrAttrKey together with its structured detail and hints, where the
	// backend supports them.
	//
	//	logger.Error("Fit failed", err, log.OperationKey, log.OperationFit)
	Error(msg string, fields ...any)

	// With returns a logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level are emitted. Hot loops check
	// it before building fields.
	Enabled(ctx context.Context, level Level) bool
}

// Level は slog.Level と同じ値を持つログレベルです。
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
