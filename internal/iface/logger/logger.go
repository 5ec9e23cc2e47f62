package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var (
	// Default logger instance
	defaultLogger *slog.Logger
)

// Level represents log level
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Setup initializes the logger with the specified configuration
func Setup(level Level, logPath string) error {
	// Parse log level
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	// Create log directory if it doesn't exist
	if logPath != "" {
		dir := filepath.Dir(logPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	var writers []io.Writer
	writers = append(writers, os.Stdout)

	// Add file writer if log path is specified
	if logPath != "" {
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}

	// Create multi-writer
	multiWriter := io.MultiWriter(writers...)

	// Create handler with options
	opts := &slog.HandlerOptions{
		Level:     slogLevel,
		AddSource: false,
	}

	handler := slog.NewTextHandler(multiWriter, opts)
	defaultLogger = slog.New(handler)

	return nil
}

// Get returns the default logger instance
func Get() *slog.Logger {
	if defaultLogger == nil {
		// Initialize with default settings if not set up
		Setup(LevelInfo, "")
	}
	return defaultLogger
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// With returns a logger with additional attributes
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// WithGroup returns a logger with a group name
func WithGroup(name string) *slog.Logger {
	return Get().WithGroup(name)
}

// LogEvent logs a structured event
func LogEvent(event string, attrs map[string]any) {
	args := make([]any, 0, len(attrs)*2)
	for k, v := range attrs {
		args = append(args, k, v)
	}
	Get().Info(event, args...)
}

// LogError logs an error with context
func LogError(err error, context map[string]any) {
	args := make([]any, 0, len(context)*2+2)
	args = append(args, "error", err.Error())
	for k, v := range context {
		args = append(args, k, v)
	}
	Get().Error("error occurred", args...)
}

// ===== GAME LOGGING HELPERS =====

// MoveMetrics holds one applied move
type MoveMetrics struct {
	From      string
	To        string
	Capture   bool
	Compound  string // "castling", "opponent", "capture" or empty
	ByEngine  bool
	LatencyMs float64 // time from pickup to completion
}

// LogMove logs a completed physical move
func LogMove(metrics MoveMetrics) {
	Get().Info("move_completed",
		"from", metrics.From,
		"to", metrics.To,
		"capture", metrics.Capture,
		"compound", metrics.Compound,
		"by_engine", metrics.ByEngine,
		"latency_ms", fmt.Sprintf("%.0f", metrics.LatencyMs),
	)
}

// GameMetrics holds game session statistics
type GameMetrics struct {
	Variant      string // "chess" or "checkers"
	MovesPlayed  int
	Mismatches   int
	Violations   int
	GameDuration float64 // Seconds
	Result       string
}

// LogGameSession logs game session statistics
func LogGameSession(metrics GameMetrics) {
	Get().Info("game_session",
		"variant", metrics.Variant,
		"moves", metrics.MovesPlayed,
		"mismatches", metrics.Mismatches,
		"violations", metrics.Violations,
		"duration", fmt.Sprintf("%.1fs", metrics.GameDuration),
		"result", metrics.Result,
	)
}

// SensorMetrics holds poll loop statistics
type SensorMetrics struct {
	Polls       int64
	Changes     int64
	RateHz      float64
	OccupiedNow int
}

// LogSensors logs sensor polling statistics
func LogSensors(metrics SensorMetrics) {
	Get().Debug("sensor_stats",
		"polls", metrics.Polls,
		"changes", metrics.Changes,
		"rate_hz", fmt.Sprintf("%.1f", metrics.RateHz),
		"occupied", metrics.OccupiedNow,
	)
}

// StartOperation logs the start of an operation (returns cleanup function)
func StartOperation(operation string, attrs map[string]any) func(error) {
	startTime := time.Now()

	logArgs := make([]any, 0, len(attrs)*2+2)
	logArgs = append(logArgs, "operation", operation)
	for k, v := range attrs {
		logArgs = append(logArgs, k, v)
	}
	Get().Info("operation_start", logArgs...)

	// Return cleanup function
	return func(err error) {
		duration := time.Since(startTime)
		success := err == nil

		endArgs := make([]any, 0, len(attrs)*2+6)
		endArgs = append(endArgs, "operation", operation)
		endArgs = append(endArgs, "duration_ms", duration.Milliseconds())
		endArgs = append(endArgs, "success", success)
		if err != nil {
			endArgs = append(endArgs, "error", err.Error())
		}
		for k, v := range attrs {
			endArgs = append(endArgs, k, v)
		}

		if success {
			Get().Info("operation_complete", endArgs...)
		} else {
			Get().Error("operation_failed", endArgs...)
		}
	}
}

// FormatMove formats a move for event logging
func FormatMove(from, to string, capture bool) map[string]any {
	return map[string]any{
		"from":    from,
		"to":      to,
		"capture": capture,
	}
}
