// FILE: lixenwraith/logsetup/compat/zap.go
package compat

import (
	"runtime"

	"github.com/lixenwraith/logsetup"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ zapcore.Core = (*ZapCore)(nil)

// ZapCore is a zapcore.Core writing zap entries to a logsetup.Logger.
// Fields are appended to the message as key=value pairs and named zap
// loggers map to child loggers.
type ZapCore struct {
	logger *logsetup.Logger
	fields []zapcore.Field
}

// NewZapCore creates a core backed by logger
func NewZapCore(logger *logsetup.Logger) *ZapCore {
	return &ZapCore{logger: logger}
}

// NewZapLogger returns a zap logger with caller annotation on top of a ZapCore
func NewZapLogger(logger *logsetup.Logger, opts ...zap.Option) *zap.Logger {
	return zap.New(NewZapCore(logger), append([]zap.Option{zap.AddCaller()}, opts...)...)
}

// Enabled implements zapcore.LevelEnabler
func (c *ZapCore) Enabled(lvl zapcore.Level) bool {
	return c.logger.Enabled(zapLevel(lvl))
}

// With returns a core carrying additional fields
func (c *ZapCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &ZapCore{logger: c.logger, fields: merged}
}

// Check adds the core to ce when the entry level is enabled
func (c *ZapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write emits the entry with its caller as provenance
func (c *ZapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	var frame runtime.Frame
	if ent.Caller.Defined {
		frame = runtime.Frame{
			PC:       ent.Caller.PC,
			File:     ent.Caller.File,
			Line:     ent.Caller.Line,
			Function: ent.Caller.Function,
		}
	}

	msg := appendFields(ent.Message, enc.Fields)
	if ent.Stack != "" {
		msg += "\n" + ent.Stack
	}
	c.logger.Child(ent.LoggerName).LogFrame(zapLevel(ent.Level), frame, msg)
	return nil
}

// Sync flushes the sinks of the logger's dispatcher
func (c *ZapCore) Sync() error {
	return c.logger.Dispatcher().Flush()
}

func zapLevel(lvl zapcore.Level) int64 {
	switch {
	case lvl <= zapcore.DebugLevel:
		return logsetup.LevelDebug
	case lvl == zapcore.InfoLevel:
		return logsetup.LevelInfo
	case lvl == zapcore.WarnLevel:
		return logsetup.LevelWarn
	case lvl == zapcore.ErrorLevel:
		return logsetup.LevelError
	default:
		// DPanic, Panic and Fatal
		return logsetup.LevelCritical
	}
}
