// FILE: lixenwraith/logsetup/compat/zerolog.go
package compat

import (
	"bytes"
	"encoding/json"
	"runtime"
	"strconv"
	"strings"

	"github.com/lixenwraith/logsetup"
	"github.com/rs/zerolog"
)

var _ zerolog.LevelWriter = (*ZerologWriter)(nil)

// ZerologWriter is a zerolog.LevelWriter that decodes zerolog's JSON events
// and emits them on a logsetup.Logger. The caller field, when present,
// becomes the record provenance.
type ZerologWriter struct {
	logger *logsetup.Logger
}

// NewZerologWriter creates a writer backed by logger
func NewZerologWriter(logger *logsetup.Logger) *ZerologWriter {
	return &ZerologWriter{logger: logger}
}

// NewZerologLogger returns a zerolog logger with caller annotation writing to logger
func NewZerologLogger(logger *logsetup.Logger) zerolog.Logger {
	return zerolog.New(NewZerologWriter(logger)).With().Caller().Logger()
}

// Write handles events without a level hint; the level field decides
func (w *ZerologWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel implements zerolog.LevelWriter
func (w *ZerologWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	var event map[string]any
	dec := json.NewDecoder(bytes.NewReader(p))
	dec.UseNumber()
	if err := dec.Decode(&event); err != nil {
		// Not an event, log the raw bytes
		w.logger.LogFrame(zerologLevel(level), runtime.Frame{}, strings.TrimSpace(string(p)))
		return len(p), nil
	}

	if level == zerolog.NoLevel {
		if s, ok := event[zerolog.LevelFieldName].(string); ok {
			if parsed, err := zerolog.ParseLevel(s); err == nil {
				level = parsed
			}
		}
	}

	msg, _ := event[zerolog.MessageFieldName].(string)
	var frame runtime.Frame
	if caller, ok := event[zerolog.CallerFieldName].(string); ok {
		frame = parseCaller(caller)
	}

	delete(event, zerolog.LevelFieldName)
	delete(event, zerolog.MessageFieldName)
	delete(event, zerolog.CallerFieldName)
	delete(event, zerolog.TimestampFieldName)

	w.logger.LogFrame(zerologLevel(level), frame, appendFields(msg, event))
	return len(p), nil
}

// parseCaller splits zerolog's "file:line" caller field
func parseCaller(caller string) runtime.Frame {
	i := strings.LastIndexByte(caller, ':')
	if i < 0 {
		return runtime.Frame{File: caller}
	}
	line, err := strconv.Atoi(caller[i+1:])
	if err != nil {
		return runtime.Frame{File: caller}
	}
	return runtime.Frame{File: caller[:i], Line: line}
}

func zerologLevel(level zerolog.Level) int64 {
	switch level {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return logsetup.LevelDebug
	case zerolog.WarnLevel:
		return logsetup.LevelWarn
	case zerolog.ErrorLevel:
		return logsetup.LevelError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return logsetup.LevelCritical
	default:
		// Info and NoLevel
		return logsetup.LevelInfo
	}
}
