package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality.
type Logger struct {
	*zap.Logger
}

// Option customizes the zap configuration before the logger is built.
type Option func(config *zap.Config)

// WithDebug lowers the level to debug.
func WithDebug(debug bool) Option {
	return func(config *zap.Config) {
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
	}
}

// WithOutput replaces the output paths, e.g. a log file next to the results.
func WithOutput(paths ...string) Option {
	return func(config *zap.Config) {
		config.OutputPaths = paths
	}
}

// NewLogger creates a new logger instance with production configuration.
func NewLogger(opts ...Option) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	for _, opt := range opts {
		opt(&config)
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: zapLogger}, nil
}

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
