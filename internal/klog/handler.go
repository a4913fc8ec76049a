package klog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Hook runs against every record a Handler handles, after cloning it
// so hooks never observe each other's mutations out of order.
type Hook interface {
	Run(ctx context.Context, r *slog.Record)
}

// Handler is a slog.Handler with hook support, used to inject
// context-scoped attributes (e.g. a cancellation scope's ID) without
// threading a *slog.Logger through every call.
type Handler struct {
	handler slog.Handler
	hooks   []Hook
}

// NewHandler builds the process logger's handler: JSON to stdout and to
// a rotating file at LogPath, which defaults to gokio.log when empty.
func NewHandler(config ...Config) Handler {
	cfg := mergeConfig(config...)
	replaceAttr := changeMsgKey(cfg.ReplaceAttr)

	var writer io.Writer = os.Stdout
	if cfg.LogPath != "" {
		writer = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxAge,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		})
	}

	base := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:       cfg.Level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: replaceAttr,
	})

	return WrapHandler(base).WithHooks(cfg.Hooks...)
}

// WrapHandler wraps an existing slog.Handler with the attribute-
// injection hook, defaulting to a plain JSON stdout handler if h is
// nil.
func WrapHandler(h slog.Handler) Handler {
	if h == nil {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}
	return Handler{handler: h, hooks: []Hook{dataHook{}}}
}

func (h Handler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.handler.Enabled(ctx, l)
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.hooks) > 0 {
		r = r.Clone()
		for _, hook := range h.hooks {
			hook.Run(ctx, &r)
		}
	}
	return h.handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{hooks: h.hooks, handler: h.handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{hooks: h.hooks, handler: h.handler.WithGroup(name)}
}

func (h Handler) WithHooks(hooks ...Hook) Handler {
	if len(hooks) == 0 {
		return h
	}
	return Handler{hooks: slices.Concat(h.hooks, hooks), handler: h.handler}
}

const MessageKey = "message"

func changeMsgKey(fn ReplaceAttrFunc) ReplaceAttrFunc {
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.MessageKey {
			a = slog.String(MessageKey, a.Value.String())
		}
		if fn != nil {
			return fn(groups, a)
		}
		return a
	}
}

// SetupLogRotation builds a ready-to-use *slog.Logger from a
// kconfig.LogConfig-shaped set of values.
func SetupLogRotation(logPath, level string, maxSize, maxAge, maxBackups int, compress bool) *slog.Logger {
	return slog.New(NewHandler(Config{
		Level:      parseLevel(level),
		LogPath:    logPath,
		MaxSize:    maxSize,
		MaxAge:     maxAge,
		MaxBackups: maxBackups,
		Compress:   compress,
	}))
}
