// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging provides the JSON structured logger shared by the service.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxKey is the gin context key holding the request-scoped logger.
const ctxKey = "docling.logger"

type Logger struct {
	*slog.Logger
}

// New builds a JSON logger writing to w at the named level.
func New(w io.Writer, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))}, nil
}

// Default is a stdout logger at info level, used before configuration is loaded.
func Default() *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// Discard drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

// ParseLevel maps debug, info, warn (or warning) and error to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	s := strings.ToLower(strings.TrimSpace(level))
	if s == "" {
		return slog.LevelInfo, nil
	}
	if s == "warning" {
		s = "warn"
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With("error", err.Error())}
}

func (l *Logger) WithFields(args ...any) *Logger {
	return &Logger{Logger: l.With(args...)}
}

// Attach stores a request-scoped logger on the gin context.
func Attach(ctx *gin.Context, l *Logger) {
	ctx.Set(ctxKey, l)
}

// FromCtx returns the logger attached to ctx, or fallback tagged with the path.
func FromCtx(ctx *gin.Context, fallback *Logger) *Logger {
	if v, ok := ctx.Get(ctxKey); ok {
		if l, ok := v.(*Logger); ok {
			return l
		}
	}
	return fallback.WithFields("path", ctx.Request.URL.Path)
}
