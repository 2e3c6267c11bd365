// Package logging adapts zap to the Nakama runtime.Logger interface so the
// standalone server and the Nakama module log through the same calls.
package logging

import (
	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
)

type zapLogger struct {
	sugar  *zap.SugaredLogger
	fields map[string]interface{}
}

// NewZapLogger wraps logger. A nil logger yields a no-op logger.
func NewZapLogger(logger *zap.Logger) runtime.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// New builds a production logger, or a development one when debug is set.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (l *zapLogger) Debug(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }
func (l *zapLogger) Info(format string, v ...interface{})  { l.sugar.Infof(format, v...) }
func (l *zapLogger) Warn(format string, v ...interface{})  { l.sugar.Warnf(format, v...) }
func (l *zapLogger) Error(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }

func (l *zapLogger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

func (l *zapLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}
	return &zapLogger{sugar: l.sugar.With(args...), fields: merged}
}

func (l *zapLogger) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		out[k] = v
	}
	return out
}
