package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// GraylogSink sends JSON log lines to a Graylog GELF UDP input.
type GraylogSink struct {
	writer  *gelf.Writer
	handler slog.Handler
}

// NewGraylogSink connects to the GELF input at addr ("host:port").
func NewGraylogSink(addr, level string) (*GraylogSink, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to graylog at %s: %w", addr, err)
	}
	w.Facility = "trackalign"
	return &GraylogSink{
		writer:  w,
		handler: slog.NewJSONHandler(w, handlerOptions(parseLevel(level))),
	}, nil
}

// Handler returns the slog handler feeding the sink.
func (s *GraylogSink) Handler() slog.Handler {
	return s.handler
}

// Close releases the UDP connection.
func (s *GraylogSink) Close() error {
	return s.writer.Close()
}
