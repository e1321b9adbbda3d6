// FILE: lixenwraith/logsetup/dispatcher.go
package logsetup

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
)

// Dispatcher fans records out to registered sinks. The registry is
// copy-on-write: Emit reads a snapshot without locking while Register
// publishes a new slice under mu.
type Dispatcher struct {
	regs  atomic.Pointer[[]*registration]
	mu    sync.Mutex
	level atomic.Int64
	state State
}

// State encapsulates the runtime state and counters of a dispatcher
type State struct {
	ShutdownCalled atomic.Bool

	ErrorOutput atomic.Value // stores *writerBox, fallback stream for internal diagnostics

	TotalEmitted    atomic.Uint64 // Records that passed the global level
	TotalDropped    atomic.Uint64 // Records below the global level or after shutdown
	TotalDeliveries atomic.Uint64 // Successful sink deliveries
	TotalFailures   atomic.Uint64 // Failed sink deliveries
}

// writerBox is a wrapper around an io.Writer, atomic value type change workaround
type writerBox struct {
	w io.Writer
}

// DispatcherOption configures a Dispatcher at construction
type DispatcherOption func(*Dispatcher)

// WithLevel sets the initial global level
func WithLevel(level int64) DispatcherOption {
	return func(d *Dispatcher) {
		d.level.Store(level)
	}
}

// WithErrorOutput sets the fallback stream for delivery failures, nil discards
func WithErrorOutput(w io.Writer) DispatcherOption {
	return func(d *Dispatcher) {
		d.SetErrorOutput(w)
	}
}

// NewDispatcher creates an empty dispatcher passing every level
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{}
	empty := make([]*registration, 0)
	d.regs.Store(&empty)
	d.level.Store(LevelDebug)
	d.state.ErrorOutput.Store(&writerBox{w: os.Stderr})
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) registrations() []*registration {
	return *d.regs.Load()
}

// Register appends a sink with its minimum level and formatter.
// A nil formatter selects the default formatter.
func (d *Dispatcher) Register(s Sink, level int64, f *Formatter) (*SinkHandle, error) {
	if s == nil {
		return nil, invalidArgf("sink cannot be nil")
	}
	if f == nil {
		f = DefaultFormatter()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.ShutdownCalled.Load() {
		return nil, ErrShutdown
	}

	old := d.registrations()
	reg := &registration{
		sink:      s,
		name:      sinkName(s, len(old)),
		formatter: f,
	}
	reg.level.Store(level)

	next := make([]*registration, len(old), len(old)+1)
	copy(next, old)
	next = append(next, reg)
	d.regs.Store(&next)

	return &SinkHandle{reg: reg}, nil
}

// SetLevel sets the global threshold applied before per-sink filtering
func (d *Dispatcher) SetLevel(level int64) {
	d.level.Store(level)
}

// Level returns the global threshold
func (d *Dispatcher) Level() int64 {
	return d.level.Load()
}

// SetErrorOutput replaces the fallback stream, nil discards diagnostics
func (d *Dispatcher) SetErrorOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	d.state.ErrorOutput.Store(&writerBox{w: w})
}

// Enabled reports whether a record at level would pass the global threshold
func (d *Dispatcher) Enabled(level int64) bool {
	return level >= d.level.Load() && !d.state.ShutdownCalled.Load()
}

// Emit delivers r to every sink whose minimum level it satisfies, in
// registration order. Sink failures are reported to the error output and
// never reach the caller or the remaining sinks.
func (d *Dispatcher) Emit(r *Record) {
	if r == nil {
		return
	}
	if !d.Enabled(r.Level) {
		d.state.TotalDropped.Add(1)
		return
	}
	d.state.TotalEmitted.Add(1)

	for _, reg := range d.registrations() {
		if r.Level < reg.level.Load() {
			continue
		}
		if err := d.deliver(reg, r); err != nil {
			d.internalLog("%v\n", err)
		}
	}
}

// deliver renders and hands r to one sink, converting errors and panics to DeliveryError
func (d *Dispatcher) deliver(reg *registration, r *Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &DeliveryError{Sink: reg.name, Err: fmt.Errorf("sink panicked: %v", p)}
		}
		if err != nil {
			reg.failures.Add(1)
			d.state.TotalFailures.Add(1)
			return
		}
		reg.deliveries.Add(1)
		d.state.TotalDeliveries.Add(1)
	}()

	text := reg.formatter.Render(r)
	if derr := reg.sink.Deliver(text, r); derr != nil {
		return &DeliveryError{Sink: reg.name, Err: derr}
	}
	return nil
}

// Flush syncs every sink that supports it
func (d *Dispatcher) Flush() error {
	var err error
	for _, reg := range d.registrations() {
		if s, ok := reg.sink.(interface{ Sync() error }); ok {
			if serr := s.Sync(); serr != nil {
				err = multierr.Append(err, fmtErrorf("failed to sync %s: %w", reg.name, serr))
			}
		}
	}
	return err
}

// Shutdown closes every sink once, in registration order. Later calls are no-ops.
func (d *Dispatcher) Shutdown() error {
	if !d.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	d.mu.Lock()
	regs := d.registrations()
	d.mu.Unlock()

	var err error
	for _, reg := range regs {
		err = multierr.Append(err, closeRegistration(reg))
	}
	return err
}

func closeRegistration(reg *registration) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmtErrorf("closing %s panicked: %v", reg.name, p)
		}
	}()
	if cerr := reg.sink.Close(); cerr != nil {
		return fmtErrorf("failed to close %s: %w", reg.name, cerr)
	}
	return nil
}

// IsShutdown reports whether Shutdown was called
func (d *Dispatcher) IsShutdown() bool {
	return d.state.ShutdownCalled.Load()
}

// Logger returns a named front end bound to this dispatcher
func (d *Dispatcher) Logger(name string) *Logger {
	return &Logger{name: name, d: d}
}

// SinkStats is a per-registration counter snapshot
type SinkStats struct {
	Name       string
	Level      int64
	Deliveries uint64
	Failures   uint64
}

// Stats is a dispatcher counter snapshot
type Stats struct {
	Emitted    uint64
	Dropped    uint64
	Deliveries uint64
	Failures   uint64
	Sinks      []SinkStats
}

// Stats returns a snapshot of the dispatcher counters
func (d *Dispatcher) Stats() Stats {
	regs := d.registrations()
	s := Stats{
		Emitted:    d.state.TotalEmitted.Load(),
		Dropped:    d.state.TotalDropped.Load(),
		Deliveries: d.state.TotalDeliveries.Load(),
		Failures:   d.state.TotalFailures.Load(),
		Sinks:      make([]SinkStats, 0, len(regs)),
	}
	for _, reg := range regs {
		s.Sinks = append(s.Sinks, SinkStats{
			Name:       reg.name,
			Level:      reg.level.Load(),
			Deliveries: reg.deliveries.Load(),
			Failures:   reg.failures.Load(),
		})
	}
	return s
}

// internalLog writes dispatcher diagnostics to the error output
func (d *Dispatcher) internalLog(format string, args ...any) {
	box, _ := d.state.ErrorOutput.Load().(*writerBox)
	if box == nil || box.w == nil {
		return
	}
	if !strings.HasPrefix(format, "logsetup: ") && !strings.HasPrefix(format, "%v") {
		format = "logsetup: " + format
	}
	fmt.Fprintf(box.w, format, args...)
}
