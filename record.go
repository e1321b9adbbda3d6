// FILE: lixenwraith/logsetup/record.go
package logsetup

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// Record is a single log event. It is fully populated before dispatch and
// shared read-only by all sinks; sinks must not modify it.
type Record struct {
	Level   int64
	Message string

	Logger   string
	Module   string
	Function string
	File     string
	Line     int

	Time       time.Time
	ThreadName string
	ThreadID   uint64

	// Err is set only for records that originate from a panic or an error
	Err *ErrorInfo
}

// ErrorInfo describes the failure attached to a record
type ErrorInfo struct {
	Kind  string // dynamic type of the value, e.g. "*errors.errorString"
	Value any
	Text  string
	Stack string
}

// threadNames maps goroutine id to the name given when it was started via the Bridge
var threadNames sync.Map

// spewConfig renders panic values that are neither errors nor strings
var spewConfig = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// CurrentThread reports the name and id used for records from the calling goroutine
func CurrentThread() (string, uint64) {
	id := goroutineID()
	return threadName(id), id
}

func threadName(id uint64) string {
	if name, ok := threadNames.Load(id); ok {
		return name.(string)
	}
	if id == 1 {
		return mainThreadName
	}
	return "goroutine-" + strconv.FormatUint(id, 10)
}

// newRecord builds a record with thread identity and provenance from frame
func newRecord(logger string, level int64, msg string, frame runtime.Frame) *Record {
	name, id := CurrentThread()
	return &Record{
		Level:      level,
		Message:    msg,
		Logger:     logger,
		Module:     moduleName(frame.File),
		Function:   shortFuncName(frame.Function),
		File:       frame.File,
		Line:       frame.Line,
		Time:       time.Now(),
		ThreadName: name,
		ThreadID:   id,
	}
}

// NewErrorInfo captures a panic value or error with its stack
func NewErrorInfo(v any, stack []byte) *ErrorInfo {
	return &ErrorInfo{
		Kind:  fmt.Sprintf("%T", v),
		Value: v,
		Text:  describeValue(v),
		Stack: string(bytes.TrimSpace(stack)),
	}
}

// describeValue renders a panic value for humans
func describeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return val
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprint(val)
	default:
		return string(bytes.TrimSpace([]byte(spewConfig.Sdump(val))))
	}
}
