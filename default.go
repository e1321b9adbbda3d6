// FILE: lixenwraith/logsetup/default.go
package logsetup

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

// Process-wide instances used by package-level functions. Until Init the
// default dispatcher has no sinks.
var (
	defaultDispatcher atomic.Pointer[Dispatcher]
	defaultBridge     = NewBridge(nil)
	defaultHeartbeat  atomic.Pointer[Heartbeat]
	rootLogger        = &Logger{name: rootLoggerName}
)

func init() {
	d := NewDispatcher()
	defaultDispatcher.Store(d)
	defaultBridge.SetDispatcher(d)
}

// Default returns the process-wide dispatcher
func Default() *Dispatcher {
	return defaultDispatcher.Load()
}

// DefaultBridge returns the process-wide bridge
func DefaultBridge() *Bridge {
	return defaultBridge
}

// GetLogger returns a named logger bound to whichever dispatcher is the default
func GetLogger(name string) *Logger {
	return &Logger{name: name}
}

// Init sets up logging with the defaults and optional "key=value" overrides:
// console at DEBUG, errors.log at ERROR, main and worker panic capture.
func Init(overrides ...string) error {
	cfg := DefaultConfig()
	if err := cfg.ApplyOverride(overrides...); err != nil {
		return err
	}
	return InitWithConfig(cfg)
}

// InitWithConfig replaces the default dispatcher with one built from cfg and
// installs the configured panic capture. The previous dispatcher is shut down.
func InitWithConfig(cfg *Config) error {
	d, err := NewDispatcherFromConfig(cfg)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	stopHeartbeat()
	old := defaultDispatcher.Swap(d)
	defaultBridge.SetDispatcher(d)
	if old != nil && old != d {
		if err := old.Shutdown(); err != nil {
			d.internalLog("%v\n", err)
		}
	}

	// Keep a callback installed earlier through EnableMainThreadCapture
	if cfg.CaptureMain && !defaultBridge.MainCaptureEnabled() {
		defaultBridge.EnableMainCapture(nil)
	}
	if cfg.CaptureWorkers {
		defaultBridge.EnableWorkerCapture()
	}

	rootLogger.Debug("Initialized logging subsystem")
	if cfg.LogDebugInfo {
		rootLogger.LogDebugInfo(LevelInfo)
	}

	if cfg.HeartbeatLevel > HeartbeatOff {
		hb, err := d.NewHeartbeat(cfg.HeartbeatLevel, time.Duration(cfg.HeartbeatIntervalS)*time.Second)
		if err != nil {
			return err
		}
		defaultHeartbeat.Store(hb)
		hb.Start(defaultBridge)
	}
	return nil
}

// Shutdown stops the heartbeat, then flushes and closes every sink of the
// default dispatcher
func Shutdown() error {
	stopHeartbeat()
	return Default().Shutdown()
}

func stopHeartbeat() {
	if hb := defaultHeartbeat.Swap(nil); hb != nil {
		hb.Stop()
	}
}

// Flush syncs the sinks of the default dispatcher
func Flush() error {
	return Default().Flush()
}

// SetLevel sets the global level of the default dispatcher
func SetLevel(level int64) {
	Default().SetLevel(level)
}

// Register adds a sink to the default dispatcher
func Register(s Sink, level int64, f *Formatter) (*SinkHandle, error) {
	return Default().Register(s, level, f)
}

// RegisterConsole registers a console sink on the default dispatcher
func RegisterConsole(level int64, opts ConsoleOptions, fo FormatOptions) (*SinkHandle, error) {
	return Default().RegisterConsole(level, opts, fo)
}

// RegisterFile registers a file sink on the default dispatcher
func RegisterFile(level int64, path string, fo FormatOptions) (*SinkHandle, error) {
	return Default().RegisterFile(level, path, fo)
}

// RegisterRotatingFile registers a size-rotating file sink on the default dispatcher
func RegisterRotatingFile(level int64, path string, maxBytes int64, backupCount int, fo FormatOptions) (*SinkHandle, error) {
	return Default().RegisterRotatingFile(level, path, maxBytes, backupCount, fo)
}

// RegisterTimedRotatingFile registers a time-rotating file sink on the default dispatcher
func RegisterTimedRotatingFile(level int64, path string, interval time.Duration, backupCount int, fo FormatOptions) (*SinkHandle, error) {
	return Default().RegisterTimedRotatingFile(level, path, interval, backupCount, fo)
}

// RegisterSocket registers a socket sink on the default dispatcher
func RegisterSocket(level int64, host string, port int) (*SinkHandle, error) {
	return Default().RegisterSocket(level, host, port)
}

// RegisterPushNotification registers a push notification sink on the default dispatcher
func RegisterPushNotification(level int64, opts PushOptions, fo FormatOptions) (*SinkHandle, error) {
	return Default().RegisterPushNotification(level, opts, fo)
}

// RegisterMailgun registers a Mailgun email sink on the default dispatcher
func RegisterMailgun(level int64, opts MailgunOptions, fo FormatOptions) (*SinkHandle, error) {
	return Default().RegisterMailgun(level, opts, fo)
}

// RegisterSMTP registers an SMTP email sink on the default dispatcher
func RegisterSMTP(level int64, opts SMTPOptions, fo FormatOptions) (*SinkHandle, error) {
	return Default().RegisterSMTP(level, opts, fo)
}

// EnableMainThreadCapture installs the main goroutine hook with an optional
// callback run after the panic was logged. Pair with a deferred RecoverMain.
func EnableMainThreadCapture(cb Callback) {
	defaultBridge.EnableMainCapture(cb)
}

// EnableWorkerThreadCapture installs the worker hook used by Go, Wrap,
// WrapErr, NewGroup and NewPool
func EnableWorkerThreadCapture() {
	defaultBridge.EnableWorkerCapture()
}

// RecoverMain must be deferred as the first statement of main, see Bridge.RecoverMain
func RecoverMain() {
	if v := recover(); v != nil {
		defaultBridge.handleMain(v, debug.Stack())
	}
}

// RunMain runs fn under RecoverMain
func RunMain(fn func()) {
	defaultBridge.RunMain(fn)
}

// Go starts fn in a goroutine named name under worker capture
func Go(name string, fn func()) {
	defaultBridge.Go(name, fn)
}

// Wrap decorates fn with worker capture
func Wrap(name string, fn func()) func() {
	return defaultBridge.Wrap(name, fn)
}

// WrapErr decorates fn with worker capture, preserving its result
func WrapErr(name string, fn func() error) func() error {
	return defaultBridge.WrapErr(name, fn)
}

// NewGroup returns an errgroup running under worker capture
func NewGroup(ctx context.Context, name string) (*Group, context.Context) {
	return defaultBridge.NewGroup(ctx, name)
}

// NewPool returns an ants pool whose panics feed the default bridge
func NewPool(name string, size int, opts ...ants.Option) (*Pool, error) {
	return defaultBridge.NewPool(name, size, opts...)
}

// Debug logs a message at debug level
func Debug(args ...any) {
	if rootLogger.Enabled(LevelDebug) {
		rootLogger.emit(LevelDebug, 1, joinArgs(args), nil)
	}
}

// Info logs a message at info level
func Info(args ...any) {
	if rootLogger.Enabled(LevelInfo) {
		rootLogger.emit(LevelInfo, 1, joinArgs(args), nil)
	}
}

// Warn logs a message at warning level
func Warn(args ...any) {
	if rootLogger.Enabled(LevelWarn) {
		rootLogger.emit(LevelWarn, 1, joinArgs(args), nil)
	}
}

// Error logs a message at error level
func Error(args ...any) {
	if rootLogger.Enabled(LevelError) {
		rootLogger.emit(LevelError, 1, joinArgs(args), nil)
	}
}

// Critical logs a message at critical level
func Critical(args ...any) {
	if rootLogger.Enabled(LevelCritical) {
		rootLogger.emit(LevelCritical, 1, joinArgs(args), nil)
	}
}

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...any) {
	if rootLogger.Enabled(LevelDebug) {
		rootLogger.emit(LevelDebug, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Infof logs a formatted message at info level
func Infof(format string, args ...any) {
	if rootLogger.Enabled(LevelInfo) {
		rootLogger.emit(LevelInfo, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Warnf logs a formatted message at warning level
func Warnf(format string, args ...any) {
	if rootLogger.Enabled(LevelWarn) {
		rootLogger.emit(LevelWarn, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Errorf logs a formatted message at error level
func Errorf(format string, args ...any) {
	if rootLogger.Enabled(LevelError) {
		rootLogger.emit(LevelError, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Criticalf logs a formatted message at critical level
func Criticalf(format string, args ...any) {
	if rootLogger.Enabled(LevelCritical) {
		rootLogger.emit(LevelCritical, 1, fmt.Sprintf(format, args...), nil)
	}
}

// Log logs a message at an arbitrary level
func Log(level int64, args ...any) {
	if rootLogger.Enabled(level) {
		rootLogger.emit(level, 1, joinArgs(args), nil)
	}
}

// Exception logs err at error level with the current stack attached
func Exception(err error, args ...any) {
	if rootLogger.Enabled(LevelError) {
		rootLogger.emit(LevelError, 1, joinArgs(args), NewErrorInfo(err, debug.Stack()))
	}
}

// LogDebugInfo logs the Go runtime version and the host platform at level
func LogDebugInfo(level int64) {
	if rootLogger.Enabled(level) {
		rootLogger.emit(level, 1, goVersionLine(), nil)
		rootLogger.emit(level, 1, platformLine(), nil)
	}
}
