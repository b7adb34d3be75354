// Package logging sets up the structured loggers of trackalign.
package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// Logger is the logging interface of the comparison pipeline.
// *slog.Logger and *ZerologLogger both satisfy it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, name string, runStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, runStart.Format("20060102_150405")),
	)
}
