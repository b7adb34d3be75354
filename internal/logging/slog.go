package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// Config selects the outputs of a SlogManager.
type Config struct {
	Level string
	// Console receives human readable output. Defaults to os.Stdout.
	Console io.Writer
	// File receives the same output as Console when set.
	File io.Writer
	// Provider enables the OpenTelemetry bridge when set.
	Provider    *sdklog.LoggerProvider
	ServiceName string
	// Handlers are extra sinks such as Graylog.
	Handlers []slog.Handler
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG", "TRACE":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// handlerOptions formats timestamps as RFC3339 in UTC.
func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup builds the logger from cfg, replacing any previous one.
func (m *SlogManager) Setup(cfg Config) {
	lvl := parseLevel(cfg.Level)
	m.logProvider = cfg.Provider
	opts := handlerOptions(lvl)

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	handlers := []slog.Handler{slog.NewTextHandler(console, opts)}

	if cfg.File != nil {
		handlers = append(handlers, slog.NewTextHandler(cfg.File, opts))
	}

	if cfg.Provider != nil {
		name := cfg.ServiceName
		if name == "" {
			name = "trackalign"
		}
		handlers = append(handlers, otelslog.NewHandler(name, otelslog.WithLoggerProvider(cfg.Provider)))
	}

	handlers = append(handlers, cfg.Handlers...)

	m.logger = slog.New(NewMultiHandler(handlers...))
	m.logger.Debug("Logging initialized", "level", lvl.String())
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}
