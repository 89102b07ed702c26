// Package logging configures zerolog for the service and carries
// request-scoped fields through contexts.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	adminKey     contextKey = "admin"
)

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output io.Writer
}

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, "text") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Setup builds a logger from cfg and installs it as the global logger.
func Setup(cfg Config) zerolog.Logger {
	logger := New(cfg)
	log.Logger = logger
	return logger
}

// WithRequestID stores id on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithAdmin stores the authenticated administrator's email on ctx.
func WithAdmin(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, adminKey, email)
}

// Admin returns the email stored by WithAdmin.
func Admin(ctx context.Context) string {
	email, _ := ctx.Value(adminKey).(string)
	return email
}

// FromContext returns the global logger enriched with request-scoped fields.
func FromContext(ctx context.Context) *zerolog.Logger {
	fields := log.With()
	if id := RequestID(ctx); id != "" {
		fields = fields.Str("request_id", id)
	}
	if email := Admin(ctx); email != "" {
		fields = fields.Str("admin", email)
	}
	logger := fields.Logger()
	return &logger
}
