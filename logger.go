// FILE: lixenwraith/logsetup/logger.go
package logsetup

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Logger is a named front end that builds records with caller provenance
// and hands them to its dispatcher. A Logger without a dispatcher follows
// the default one, see GetLogger.
type Logger struct {
	name string
	d    *Dispatcher
}

// Name returns the logger name carried by its records
func (l *Logger) Name() string {
	return l.name
}

// Child returns a logger named "<name>.<suffix>" on the same dispatcher
func (l *Logger) Child(suffix string) *Logger {
	if suffix == "" {
		return l
	}
	if l.name == "" || l.name == rootLoggerName {
		return &Logger{name: suffix, d: l.d}
	}
	return &Logger{name: l.name + "." + suffix, d: l.d}
}

// Dispatcher returns the dispatcher records are emitted to
func (l *Logger) Dispatcher() *Dispatcher {
	if l.d != nil {
		return l.d
	}
	return Default()
}

// Enabled reports whether a record at level would be dispatched
func (l *Logger) Enabled(level int64) bool {
	return l.Dispatcher().Enabled(level)
}

// emit builds and dispatches a record; skip counts frames above emit's caller
func (l *Logger) emit(level int64, skip int, msg string, info *ErrorInfo) {
	frame, _ := callerFrame(skip + 1)
	r := newRecord(l.name, level, msg, frame)
	r.Err = info
	l.Dispatcher().Emit(r)
}

// Debug logs a message at debug level
func (l *Logger) Debug(args ...any) {
	if l.Enabled(LevelDebug) {
		l.emit(LevelDebug, 1, joinArgs(args), nil)
	}
}

// Info logs a message at info level
func (l *Logger) Info(args ...any) {
	if l.Enabled(LevelInfo) {
		l.emit(LevelInfo, 1, joinArgs(args), nil)
	}
}

// Warn logs a message at warning level
func (l *Logger) Warn(args ...any) {
	if l.Enabled(LevelWarn) {
		l.emit(LevelWarn, 1, joinArgs(args), nil)
	}
}

// Error logs a message at error level
func (l *Logger) Error(args ...any) {
	if l.Enabled(LevelError) {
		l.emit(LevelError, 1, joinArgs(args), nil)
	}
}

// Critical logs a message at critical level
func (l *Logger) Critical(args ...any) {
	if l.Enabled(LevelCritical) {
		l.emit(LevelCritical, 1, joinArgs(args), nil)
	}
}

// Debugf logs a formatted message at debug level
func (l *Logger) Debugf(format string, args ...any) {
	if l.Enabled(LevelDebug) {
		l.emit(LevelDebug, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Infof logs a formatted message at info level
func (l *Logger) Infof(format string, args ...any) {
	if l.Enabled(LevelInfo) {
		l.emit(LevelInfo, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Warnf logs a formatted message at warning level
func (l *Logger) Warnf(format string, args ...any) {
	if l.Enabled(LevelWarn) {
		l.emit(LevelWarn, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Errorf logs a formatted message at error level
func (l *Logger) Errorf(format string, args ...any) {
	if l.Enabled(LevelError) {
		l.emit(LevelError, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Criticalf logs a formatted message at critical level
func (l *Logger) Criticalf(format string, args ...any) {
	if l.Enabled(LevelCritical) {
		l.emit(LevelCritical, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Log logs a message at an arbitrary level
func (l *Logger) Log(level int64, args ...any) {
	if l.Enabled(level) {
		l.emit(level, 1, joinArgs(args), nil)
	}
}

// Exception logs err at error level with the current stack attached
func (l *Logger) Exception(err error, args ...any) {
	if l.Enabled(LevelError) {
		l.emit(LevelError, 1, joinArgs(args), NewErrorInfo(err, debug.Stack()))
	}
}

// LogDepth logs msg at level with provenance taken depth frames above the
// caller of LogDepth. Adapters pass 1 to report their own caller.
func (l *Logger) LogDepth(level int64, depth int, msg string) {
	if l.Enabled(level) {
		l.emit(level, depth+1, msg, nil)
	}
}

// LogFrame logs msg at level with provenance from frame, for adapters
// whose callers already resolved their source location
func (l *Logger) LogFrame(level int64, frame runtime.Frame, msg string) {
	if !l.Enabled(level) {
		return
	}
	l.Dispatcher().Emit(newRecord(l.name, level, msg, frame))
}
