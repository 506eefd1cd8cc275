// Package logging provides a small zap-backed structured logger for the
// planeseg pipeline, following the naming and leveled-logger conventions of
// a production robotics logging stack scaled down to library use.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger interface accepted by planeseg.Pipeline.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Named(name string) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger returns a new Logger named name, built from zap's development
// config: it logs Debug and above to stderr.
func NewLogger(name string) Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	z, err := cfg.Build()
	if err != nil {
		// fall back to a no-op logger rather than panic from a constructor
		return NewNoop()
	}
	return &zapLogger{z.Sugar().Named(name)}
}

func (l *zapLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{l.sugar.Named(name)}
}

type noopLogger struct{}

// NewNoop returns a Logger that discards everything, used as the default
// when a Pipeline is constructed without an explicit logger.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debugw(string, ...interface{}) {}
func (noopLogger) Warnw(string, ...interface{})  {}
func (l noopLogger) Named(string) Logger         { return l }
