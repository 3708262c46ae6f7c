package log

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/casadocigano/fidelidade/internal/errors"
)

// Logger is the console's structured logger, a thin layer over slog that
// knows how to render FidelidadeError values.
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New builds a Logger writing to config.Output.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	w := config.Output.Writer()
	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if config.Format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	// JSON records carry the build that wrote them.
	if config.Format != FormatText && config.ServiceName != "" {
		l = l.With("service", config.ServiceName, "version", config.ServiceVersion)
	}
	return &Logger{slog: l, config: config}
}

// CLI is the logger used before the configuration has been read.
func CLI() *Logger {
	return New(CLIConfig())
}

func (l *Logger) derive(s *slog.Logger) *Logger {
	return &Logger{slog: s, config: l.config}
}

func (l *Logger) With(args ...any) *Logger {
	return l.derive(l.slog.With(args...))
}

func (l *Logger) WithGroup(name string) *Logger {
	return l.derive(l.slog.WithGroup(name))
}

// codedAttrs describes err, looking through wraps for a FidelidadeError.
// msgKey names the attribute that carries the message.
func codedAttrs(err error, msgKey string) []any {
	var fe *errors.FidelidadeError
	if !stderrors.As(err, &fe) {
		return []any{"error", err.Error()}
	}

	args := []any{msgKey, fe.Message, "error_code", string(fe.Code)}
	if len(fe.Suggestions) > 0 {
		args = append(args, "suggestions", fe.Suggestions)
	}
	if fe.DocsURL != "" {
		args = append(args, "docs_url", fe.DocsURL)
	}
	if fe.Cause != nil {
		args = append(args, "cause", fe.Cause.Error())
	}
	return args
}

// WithError attaches err to every record. Coded errors also carry their
// code and suggestions.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With(codedAttrs(err, "error")...)
}

// WithContext adds the request ID carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.With("request_id", id)
	}
	return l
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// LogError records a failed operation at error level.
func (l *Logger) LogError(err error) {
	l.LogErrorContext(context.Background(), err)
}

// LogErrorContext is LogError with the request ID from ctx.
func (l *Logger) LogErrorContext(ctx context.Context, err error) {
	if err == nil {
		return
	}
	l.WithContext(ctx).ErrorContext(ctx, "operation failed", codedAttrs(err, "error_message")...)
}

func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

func (l *Logger) Handler() slog.Handler {
	return l.slog.Handler()
}

// Config returns the configuration the logger was built from.
func (l *Logger) Config() Config {
	return l.config
}
