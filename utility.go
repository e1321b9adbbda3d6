// FILE: lixenwraith/logsetup/utility.go
package logsetup

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"unicode"
)

// callerFrame returns the frame skip levels above its caller
func callerFrame(skip int) (runtime.Frame, bool) {
	pc := make([]uintptr, 1)
	n := runtime.Callers(skip+2, pc) // +2 for Callers and callerFrame
	if n == 0 {
		return runtime.Frame{}, false
	}
	frame, _ := runtime.CallersFrames(pc[:n]).Next()
	return frame, true
}

// panicFrame locates the frame that raised the panic currently unwinding.
// Must be called from within a deferred function.
func panicFrame() (runtime.Frame, bool) {
	pc := make([]uintptr, 64)
	n := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:n])
	sawPanic := false
	for {
		frame, more := frames.Next()
		if sawPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return frame, true
		}
		if frame.Function == "runtime.gopanic" {
			sawPanic = true
		}
		if !more {
			break
		}
	}
	return runtime.Frame{}, false
}

// shortFuncName strips package path and receiver from a function name
func shortFuncName(fn string) string {
	if fn == "" {
		return "(unknown)"
	}
	funcName := filepath.Base(fn)
	parts := strings.Split(funcName, ".")
	lastPart := parts[len(parts)-1]
	if strings.HasPrefix(lastPart, "func") && len(lastPart) > 4 {
		isAnonymous := true
		for _, r := range lastPart[4:] {
			if !unicode.IsDigit(r) {
				isAnonymous = false
				break
			}
		}
		if isAnonymous && len(parts) > 2 {
			return fmt.Sprintf("(anonymous in %s)", parts[len(parts)-2])
		}
	}
	return lastPart
}

// moduleName is the source file base name without extension
func moduleName(file string) string {
	if file == "" {
		return "(unknown)"
	}
	return strings.TrimSuffix(filepath.Base(file), ".go")
}

// goroutineID parses the id from the current goroutine's stack header
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 18 [running]:"
	s := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	i := bytes.IndexByte(s, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(s[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// joinArgs renders args space separated
func joinArgs(args []any) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		if s, ok := args[0].(string); ok {
			return s
		}
	}
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprint(arg))
	}
	return sb.String()
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// Level converts level string to numeric constant.
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	default:
		return 0, invalidArgf("invalid level string: '%s' (use debug, info, warn, error, critical)", levelStr)
	}
}

// LevelName returns the display name of a level
func LevelName(level int64) string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}
