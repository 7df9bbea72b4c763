package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// errorDetailHandler はエラー値を持つ属性を見つけると、cockroachdb/errors が
// 記録したスタックトレースとヒントをレコードに追加する slog ハンドラーです。
type errorDetailHandler struct {
	next slog.Handler
}

// withErrorDetails wraps next so that records carrying an error value get
// StacktraceAttrKey and SuggestionKey attributes.
func withErrorDetails(next slog.Handler) slog.Handler {
	return &errorDetailHandler{next: next}
}

func (h *errorDetailHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *errorDetailHandler) Handle(ctx context.Context, r slog.Record) error {
	var found error
	r.Attrs(func(attr slog.Attr) bool {
		if err, ok := attr.Value.Any().(error); ok {
			found = err
			return false
		}
		return true
	})
	if found == nil {
		return h.next.Handle(ctx, r)
	}

	if st := stacktraceOf(found); st != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, st))
	}
	if hints := errors.GetAllHints(found); len(hints) > 0 {
		r.AddAttrs(slog.Any(SuggestionKey, hints))
	}
	return h.next.Handle(ctx, r)
}

func (h *errorDetailHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return withErrorDetails(h.next.WithAttrs(attrs))
}

func (h *errorDetailHandler) WithGroup(g string) slog.Handler {
	return withErrorDetails(h.next.WithGroup(g))
}

// stacktraceOf returns the first safe detail recorded on err, which for
// errors built with cockroachdb/errors is the stack at the creation point.
func stacktraceOf(err error) string {
	if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		return details[0]
	}
	return ""
}
