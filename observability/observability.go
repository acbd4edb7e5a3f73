package observability

import (
	"context"
	"log/slog"
	"time"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type int64Field struct {
	key string
	val int64
}

func (f int64Field) Key() string        { return f.key }
func (f int64Field) Value() interface{} { return f.val }

type durationField struct {
	key string
	val time.Duration
}

func (f durationField) Key() string        { return f.key }
func (f durationField) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field                 { return stringField{key, value} }
func Int(key string, value int) Field                { return intField{key, value} }
func Int64(key string, value int64) Field            { return int64Field{key, value} }
func Duration(key string, value time.Duration) Field { return durationField{key, value} }
func Error(key string, err error) Field              { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// SlogLogger adapts a *slog.Logger to the Logger facade so executables can
// wire standard structured logging through library components.
type SlogLogger struct {
	L *slog.Logger
}

// NewSlogLogger wraps an slog logger; a nil argument uses slog.Default.
func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

func (s SlogLogger) Debug(msg string, fields ...Field) { s.L.Debug(msg, attrs(fields)...) }
func (s SlogLogger) Info(msg string, fields ...Field)  { s.L.Info(msg, attrs(fields)...) }
func (s SlogLogger) Warn(msg string, fields ...Field)  { s.L.Warn(msg, attrs(fields)...) }
func (s SlogLogger) Error(msg string, fields ...Field) { s.L.Error(msg, attrs(fields)...) }

func (s SlogLogger) With(fields ...Field) Logger {
	return SlogLogger{L: s.L.With(attrs(fields)...)}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key(), f.Value()))
	}
	return out
}

// Tracer provides distributed tracing hooks for pipeline operations.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span represents a tracing span.
type Span interface {
	SetTag(key string, value interface{})
	SetError(err error)
	Finish()
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

// NopTracer returns a tracer that does nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopSpan struct{}

func (nopSpan) SetTag(string, interface{}) {}
func (nopSpan) SetError(error)             {}
func (nopSpan) Finish()                    {}

// Standard metric names emitted by the pipeline.
const (
	MetricProbeTime     = "doc.probe.duration"
	MetricRasterTime    = "doc.raster.duration"
	MetricRecognizeTime = "doc.recognize.duration"
	MetricDownloadTime  = "doc.download.duration"
	MetricPageCount     = "doc.pages.count"
	MetricEntityCount   = "doc.entities.count"
)
