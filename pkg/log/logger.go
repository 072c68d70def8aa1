package log

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

const bufferCapacity = 1000

// Logger writes structured entries through an asynchronous Buffer.
// Loggers derived with With share the parent's buffer and level.
type Logger struct {
	level  *atomic.Int32
	buffer *Buffer
	fields map[string]any // read-only once constructed
}

// New creates a logger emitting entries at level and above.
func New(level Level, transporters ...Transporter) *Logger {
	l := &Logger{
		level:  new(atomic.Int32),
		buffer: NewBuffer(bufferCapacity, transporters...),
		fields: map[string]any{},
	}
	l.level.Store(int32(level))
	return l
}

// SetLevel changes the minimum level for l and every logger derived from it.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// With returns a child logger that adds keysAndValues to every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	fields := make(map[string]any, len(l.fields)+len(keysAndValues)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	mergePairs(fields, keysAndValues)
	return &Logger{level: l.level, buffer: l.buffer, fields: fields}
}

// Close flushes pending entries and closes the transporters.
func (l *Logger) Close() {
	l.buffer.Close()
}

// Field precedence, lowest first: logger fields, context fields, call site.
func (l *Logger) log(ctx context.Context, level Level, msg string, keysAndValues []any) {
	if !l.Level().Enables(level) {
		return
	}

	entry := NewEntry(level, msg)
	entry.Caller = caller(3)
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	if ctx != nil {
		entry.RunID = RunIDFromContext(ctx)
		for k, v := range FieldsFromContext(ctx) {
			entry.Fields[k] = v
		}
	}
	mergePairs(entry.Fields, keysAndValues)

	l.buffer.Send(*entry)
}

// caller returns file:line skip frames up, file name only.
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

func (l *Logger) Trace(msg string, kv ...any) { l.log(nil, Trace, msg, kv) }
func (l *Logger) Debug(msg string, kv ...any) { l.log(nil, Debug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(nil, Info, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(nil, Warn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(nil, Error, msg, kv) }

// Fatal logs, flushes the logger and exits with status 1.
func (l *Logger) Fatal(msg string, kv ...any) {
	l.log(nil, Fatal, msg, kv)
	l.Close()
	os.Exit(1)
}

func (l *Logger) TraceCtx(ctx context.Context, msg string, kv ...any) { l.log(ctx, Trace, msg, kv) }
func (l *Logger) DebugCtx(ctx context.Context, msg string, kv ...any) { l.log(ctx, Debug, msg, kv) }
func (l *Logger) InfoCtx(ctx context.Context, msg string, kv ...any)  { l.log(ctx, Info, msg, kv) }
func (l *Logger) WarnCtx(ctx context.Context, msg string, kv ...any)  { l.log(ctx, Warn, msg, kv) }
func (l *Logger) ErrorCtx(ctx context.Context, msg string, kv ...any) { l.log(ctx, Error, msg, kv) }

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
	discard      = &Logger{level: levelOf(Fatal + 1), buffer: NewBuffer(1), fields: map[string]any{}}
)

func levelOf(l Level) *atomic.Int32 {
	v := new(atomic.Int32)
	v.Store(int32(l))
	return v
}

// SetDefault installs the logger used by the Global* functions.
func SetDefault(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Default returns the global logger, or one that discards everything if
// none was installed.
func Default() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return discard
	}
	return globalLogger
}

// The Global* helpers log through Default. Caller depth matches the
// Logger methods so entries point at the helper's call site.

func GlobalTrace(msg string, kv ...any) { Default().log(nil, Trace, msg, kv) }
func GlobalDebug(msg string, kv ...any) { Default().log(nil, Debug, msg, kv) }
func GlobalInfo(msg string, kv ...any)  { Default().log(nil, Info, msg, kv) }
func GlobalWarn(msg string, kv ...any)  { Default().log(nil, Warn, msg, kv) }
func GlobalError(msg string, kv ...any) { Default().log(nil, Error, msg, kv) }

func GlobalTraceCtx(ctx context.Context, msg string, kv ...any) { Default().log(ctx, Trace, msg, kv) }
func GlobalDebugCtx(ctx context.Context, msg string, kv ...any) { Default().log(ctx, Debug, msg, kv) }
func GlobalInfoCtx(ctx context.Context, msg string, kv ...any)  { Default().log(ctx, Info, msg, kv) }
func GlobalWarnCtx(ctx context.Context, msg string, kv ...any)  { Default().log(ctx, Warn, msg, kv) }
func GlobalErrorCtx(ctx context.Context, msg string, kv ...any) { Default().log(ctx, Error, msg, kv) }
