// FILE: lixenwraith/logsetup/constant.go
package logsetup

import (
	"time"
)

// Log level constants
const (
	LevelDebug    int64 = -4
	LevelInfo     int64 = 0
	LevelWarn     int64 = 4
	LevelError    int64 = 8
	LevelCritical int64 = 12
)

// Formatter output types
const (
	FormatTxt  = "txt"
	FormatJSON = "json"
	FormatRaw  = "raw"
)

// Formatter defaults
const (
	DefaultTemplate   = "{level} {logger} - {module}.{function} ({time}) - {thread} ({thread_id}):\n{message}"
	DefaultDateFormat = "2006-01-02 15:04:05"
)

const (
	// Name of the logger used by package-level functions
	rootLoggerName = "root"
	// Name reported for goroutine 1
	mainThreadName = "main"
	// Process exit code after a captured main goroutine panic, matches the runtime's
	exitCodePanic = 2
)

// Socket sink reconnect backoff
const (
	socketRetryStart  = time.Second
	socketRetryMax    = 30 * time.Second
	socketRetryFactor = 2
	socketDialTimeout = 5 * time.Second
	// Frame header length, uint32 big-endian payload size
	frameHeaderLen = 4
	// Upper bound accepted by decoders
	maxFrameSize = 16 << 20
)

// Notification endpoints
const (
	prowlDefaultURL   = "https://api.prowlapp.com/publicapi/add"
	mailgunDefaultURL = "https://api.mailgun.net/v3"
	mailgunAPIUser    = "api"
	httpSinkTimeout   = 10 * time.Second
)
