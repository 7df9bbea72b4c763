package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Entry はテスト用ロガーが記録した1件のログです。
// Fields の値は JSON を経由するため、数値は float64 になります。
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]interface{}
}

// recorder is shared by a TestLogger and every logger derived with With.
type recorder struct {
	mu      sync.Mutex
	buf     *bytes.Buffer
	entries []Entry
}

// TestLogger is a Logger that keeps every record in memory, both as an Entry
// and as a JSON line in the returned buffer.
type TestLogger struct {
	rec    *recorder
	level  Level
	fields map[string]interface{}
}

// NewTestLogger returns a logger that records messages at level and above.
//
//	logger, _ := log.NewTestLogger(log.LevelDebug)
//	l := linear.NewLearner(linear.WithLogger(logger))
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestLogger{
		rec:    &recorder{buf: buf},
		level:  level,
		fields: map[string]interface{}{},
	}, buf
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.record(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.record(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

// With implements Logger.With.
func (t *TestLogger) With(fields ...any) Logger {
	merged := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		merged[k] = v
	}
	putPairs(merged, fields)
	return &TestLogger{rec: t.rec, level: t.level, fields: merged}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if level < t.level {
		return
	}
	raw := make(map[string]interface{}, len(t.fields)+len(fields)/2)
	for k, v := range t.fields {
		raw[k] = v
	}
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			raw[ErrAttrKey] = err.Error()
			fields = fields[1:]
		}
	}
	putPairs(raw, fields)

	data, err := json.Marshal(raw)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"marshal_error":%q}`, err.Error()))
	}
	var decoded map[string]interface{}
	_ = json.Unmarshal(data, &decoded)

	line := map[string]interface{}{"level": level.String(), "message": msg}
	for k, v := range decoded {
		line[k] = v
	}
	out, _ := json.Marshal(line)

	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	t.rec.entries = append(t.rec.entries, Entry{Level: level, Message: msg, Fields: decoded})
	t.rec.buf.Write(out)
	t.rec.buf.WriteByte('\n')
}

func putPairs(dst map[string]interface{}, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// Entries returns a copy of the records captured so far.
func (t *TestLogger) Entries() []Entry {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return append([]Entry(nil), t.rec.entries...)
}

// Messages returns the messages logged at level, in order.
func (t *TestLogger) Messages(level Level) []string {
	var out []string
	for _, e := range t.Entries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// CountLevel returns how many captured records have the given level.
func (t *TestLogger) CountLevel(level Level) int {
	return len(t.Messages(level))
}

// ContainsMessage reports whether any captured message contains message.
func (t *TestLogger) ContainsMessage(message string) bool {
	for _, e := range t.Entries() {
		if strings.Contains(e.Message, message) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any captured record has key set to value.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	for _, e := range t.Entries() {
		if v, ok := e.Fields[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear drops everything captured so far.
func (t *TestLogger) Clear() {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	t.rec.entries = nil
	t.rec.buf.Reset()
}
