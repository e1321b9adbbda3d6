// FILE: lixenwraith/logsetup/bridge.go
package logsetup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// Callback is invoked after a captured main goroutine panic was logged.
// Panics raised by the callback are not recovered.
type Callback func(kind string, value any, stack string)

// mainHook is the installed main goroutine hook; nil means disabled
type mainHook struct {
	callback Callback
}

// Bridge converts panics escaping the main goroutine and worker goroutines
// into ERROR records on a dispatcher. Go has no process-wide hook for
// unrecovered panics, so capture happens in the entry point wrappers:
// RecoverMain/RunMain for main, Go/Wrap/WrapErr, Group and Pool for workers.
type Bridge struct {
	d          atomic.Pointer[Dispatcher]
	mainHook   atomic.Pointer[mainHook]
	workerHook atomic.Bool

	exit           func(code int)
	defaultHandler func(v any)
	stderr         io.Writer

	state BridgeState
}

// BridgeState holds the bridge counters
type BridgeState struct {
	MainFaults     atomic.Uint64 // Main goroutine panics logged
	WorkerFaults   atomic.Uint64 // Worker panics logged
	Delegated      atomic.Uint64 // Panics handed to the default handler
	Exits          atomic.Uint64 // Deliberate exits, including runtime.Goexit in workers
	InternalErrors atomic.Uint64 // Faults of the logging pipeline while handling a panic
}

// BridgeOption configures a Bridge at construction
type BridgeOption func(*Bridge)

// WithExitFunc replaces os.Exit
func WithExitFunc(fn func(code int)) BridgeOption {
	return func(b *Bridge) {
		if fn != nil {
			b.exit = fn
		}
	}
}

// WithDefaultHandler replaces the handler for panics the bridge does not
// log. The default re-panics with the original value.
func WithDefaultHandler(fn func(v any)) BridgeOption {
	return func(b *Bridge) {
		if fn != nil {
			b.defaultHandler = fn
		}
	}
}

// WithStderr sets the stream used when the logging pipeline itself fails
func WithStderr(w io.Writer) BridgeOption {
	return func(b *Bridge) {
		if w != nil {
			b.stderr = w
		}
	}
}

// NewBridge creates a bridge feeding d with both captures disabled
func NewBridge(d *Dispatcher, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		exit:           os.Exit,
		defaultHandler: func(v any) { panic(v) },
		stderr:         os.Stderr,
	}
	b.d.Store(d)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetDispatcher points the bridge at another dispatcher
func (b *Bridge) SetDispatcher(d *Dispatcher) {
	b.d.Store(d)
}

// Dispatcher returns the dispatcher records are emitted to
func (b *Bridge) Dispatcher() *Dispatcher {
	return b.d.Load()
}

// EnableMainCapture installs the main goroutine hook. cb may be nil.
func (b *Bridge) EnableMainCapture(cb Callback) {
	b.mainHook.Store(&mainHook{callback: cb})
}

// DisableMainCapture removes the main goroutine hook
func (b *Bridge) DisableMainCapture() {
	b.mainHook.Store(nil)
}

// MainCaptureEnabled reports whether the main goroutine hook is installed
func (b *Bridge) MainCaptureEnabled() bool {
	return b.mainHook.Load() != nil
}

// EnableWorkerCapture installs the worker hook. Call before starting workers.
func (b *Bridge) EnableWorkerCapture() {
	b.workerHook.Store(true)
}

// DisableWorkerCapture removes the worker hook
func (b *Bridge) DisableWorkerCapture() {
	b.workerHook.Store(false)
}

// WorkerCaptureEnabled reports whether the worker hook is installed
func (b *Bridge) WorkerCaptureEnabled() bool {
	return b.workerHook.Load()
}

// RecoverMain must be deferred as the first statement of main.
//
//	func main() {
//		defer bridge.RecoverMain()
//		...
//	}
//
// A fault is logged, the callback runs, sinks are closed and the process
// exits with code 2. An Exit request closes sinks and exits with its code.
// Interrupts, and every panic while main capture is disabled, go to the
// default handler.
func (b *Bridge) RecoverMain() {
	if v := recover(); v != nil {
		b.handleMain(v, debug.Stack())
	}
}

// RunMain runs fn under RecoverMain
func (b *Bridge) RunMain(fn func()) {
	defer b.RecoverMain()
	fn()
}

func (b *Bridge) handleMain(v any, stack []byte) {
	if req, ok := asExitRequest(v); ok {
		b.state.Exits.Add(1)
		b.shutdown()
		b.exit(req.Code)
		return
	}

	hook := b.mainHook.Load()
	if hook == nil || isInterrupt(v) {
		b.state.Delegated.Add(1)
		b.defaultHandler(v)
		return
	}

	b.state.MainFaults.Add(1)
	info := b.emitFault(v, stack, "Uncaught panic in main goroutine")
	if hook.callback != nil {
		hook.callback(info.Kind, v, info.Stack)
	}
	b.shutdown()
	b.exit(exitCodePanic)
}

// Go starts fn in a new goroutine named name under worker capture
func (b *Bridge) Go(name string, fn func()) {
	go b.run(name, fn)
}

// Wrap returns fn decorated with worker capture, for use with any goroutine launcher
func (b *Bridge) Wrap(name string, fn func()) func() {
	return func() {
		b.run(name, fn)
	}
}

// WrapErr returns fn decorated with worker capture. The result of fn is
// returned unchanged; a captured panic is returned as an error.
func (b *Bridge) WrapErr(name string, fn func() error) func() error {
	return func() (err error) {
		if v, faulted := b.run(name, func() { err = fn() }); faulted {
			return fmtErrorf("goroutine '%s' panicked: %s", name, describeValue(v))
		}
		return err
	}
}

// run executes fn with name registered for the calling goroutine and
// routes an escaping panic to the worker hook
func (b *Bridge) run(name string, fn func()) (value any, faulted bool) {
	if name != "" {
		id := goroutineID()
		prev, nested := threadNames.Load(id)
		threadNames.Store(id, name)
		defer func() {
			// Restore the enclosing worker's name
			if nested {
				threadNames.Store(id, prev)
			} else {
				threadNames.Delete(id)
			}
		}()
	}

	returned := false
	defer func() {
		if returned {
			return
		}
		v := recover()
		if v == nil {
			// runtime.Goexit
			b.state.Exits.Add(1)
			return
		}
		value, faulted = v, b.handleWorker(v, debug.Stack())
	}()

	fn()
	returned = true
	return nil, false
}

// handleWorker applies the worker rules and reports whether v was logged
func (b *Bridge) handleWorker(v any, stack []byte) bool {
	if _, ok := asExitRequest(v); ok {
		b.state.Exits.Add(1)
		return false
	}
	if !b.workerHook.Load() || isInterrupt(v) {
		b.state.Delegated.Add(1)
		b.defaultHandler(v)
		return false
	}

	b.state.WorkerFaults.Add(1)
	name, _ := CurrentThread()
	b.emitFault(v, stack, "Uncaught panic in goroutine "+name)
	return true
}

// emitFault builds and emits the record for v. A fault of the pipeline is
// recovered and reported to stderr together with the original panic.
func (b *Bridge) emitFault(v any, stack []byte, msg string) (info *ErrorInfo) {
	info = NewErrorInfo(v, stack)
	defer func() {
		if p := recover(); p != nil {
			b.reportLost(info, p)
		}
	}()

	// A shut down dispatcher drops records silently
	d := b.d.Load()
	if d == nil || d.IsShutdown() {
		b.reportLost(info, "dispatcher unavailable or shut down")
		return info
	}

	frame, _ := panicFrame()
	r := newRecord(rootLoggerName, LevelError, msg, frame)
	r.Err = info
	d.Emit(r)
	return info
}

// reportLost writes a panic that could not be logged to stderr
func (b *Bridge) reportLost(info *ErrorInfo, cause any) {
	b.state.InternalErrors.Add(1)
	fmt.Fprintf(b.stderr, "%v: %v\noriginal panic: %s: %s\n%s\n",
		ErrBridgeInternal, cause, info.Kind, info.Text, info.Stack)
}

func (b *Bridge) shutdown() {
	d := b.d.Load()
	if d == nil {
		return
	}
	if err := d.Shutdown(); err != nil {
		fmt.Fprintf(b.stderr, "%v\n", err)
	}
}

// BridgeStats is a bridge counter snapshot
type BridgeStats struct {
	MainFaults     uint64
	WorkerFaults   uint64
	Delegated      uint64
	Exits          uint64
	InternalErrors uint64
}

// Stats returns a snapshot of the bridge counters
func (b *Bridge) Stats() BridgeStats {
	return BridgeStats{
		MainFaults:     b.state.MainFaults.Load(),
		WorkerFaults:   b.state.WorkerFaults.Load(),
		Delegated:      b.state.Delegated.Load(),
		Exits:          b.state.Exits.Load(),
		InternalErrors: b.state.InternalErrors.Load(),
	}
}

// isInterrupt reports whether v is a cancellation rather than a fault
func isInterrupt(v any) bool {
	switch val := v.(type) {
	case os.Signal:
		return true
	case error:
		return errors.Is(val, ErrInterrupt) || errors.Is(val, context.Canceled)
	}
	return false
}

func asExitRequest(v any) (*ExitRequest, bool) {
	err, ok := v.(error)
	if !ok {
		return nil, false
	}
	var req *ExitRequest
	if errors.As(err, &req) {
		return req, true
	}
	return nil, false
}
