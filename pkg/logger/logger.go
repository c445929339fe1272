package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

type customKey int

const (
	LogDataKey customKey = iota
)

// LogData is request-scoped data added to every record logged with the context.
type LogData struct {
	TraceID string
	Details map[string]any
}

// Options selects where and how records are written.
type Options struct {
	Level  string
	Format string // json or text
	Color  bool
	// File, if set, receives a copy of every record and is rotated by size.
	File       string
	FluentHost string
	FluentPort int
	FluentTag  string
	Output     io.Writer
}

// New builds a logger from opts. The returned close function flushes and
// releases the file and fluent sinks.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	var closers []io.Closer
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		closers = append(closers, rotated)
		out = io.MultiWriter(out, rotated)
	}

	var base slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "json":
		base = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case "text":
		base = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			NoColor:    !opts.Color,
		})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	handlers := []slog.Handler{base}
	if opts.FluentHost != "" {
		tag := opts.FluentTag
		if tag == "" {
			tag = "xcite"
		}
		client, err := fluent.New(fluent.Config{
			FluentHost: opts.FluentHost,
			FluentPort: opts.FluentPort,
			TagPrefix:  tag,
			Async:      true,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create fluent client: %w", err)
		}
		closers = append(closers, client)
		handlers = append(handlers, NewFluentHandler(client, level))
	}

	var h slog.Handler = handlers[0]
	if len(handlers) > 1 {
		h = NewMultiHandler(handlers...)
	}

	closeFn := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}
	return slog.New(NewContextHandler(h)), closeFn, nil
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}

// ContextHandler adds the LogData stored in the context to every record.
type ContextHandler struct {
	handler slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{handler: h}
}

func (h *ContextHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.handler.Enabled(ctx, lvl)
}

func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ld, ok := ctx.Value(LogDataKey).(LogData); ok {
		if ld.TraceID != "" {
			rec.AddAttrs(slog.String("trace_id", ld.TraceID))
		}
		if ld.Details != nil {
			rec.AddAttrs(slog.Any("details", ld.Details))
		}
	}
	return h.handler.Handle(ctx, rec)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	ld, _ := ctx.Value(LogDataKey).(LogData)
	ld.TraceID = traceID
	return context.WithValue(ctx, LogDataKey, ld)
}

// TraceID returns the trace id stored in ctx, if any.
func TraceID(ctx context.Context) string {
	ld, _ := ctx.Value(LogDataKey).(LogData)
	return ld.TraceID
}

// WithDetails attaches extra data, mostly for error records.
func WithDetails(ctx context.Context, key string, detail any) context.Context {
	ld, _ := ctx.Value(LogDataKey).(LogData)
	details := make(map[string]any, len(ld.Details)+1)
	for k, v := range ld.Details {
		details[k] = v
	}
	details[key] = detail
	ld.Details = details
	return context.WithValue(ctx, LogDataKey, ld)
}
