// FILE: lixenwraith/logsetup/sink.go
package logsetup

import (
	"fmt"
	"sync/atomic"
)

// Sink delivers rendered records to a destination. Implementations must
// serialize their own deliveries; Close must be safe to call more than once.
type Sink interface {
	Deliver(text string, r *Record) error
	Close() error
}

// namedSink is implemented by sinks that report a diagnostic name
type namedSink interface {
	Name() string
}

// registration binds a sink to its threshold and formatter
type registration struct {
	sink      Sink
	name      string
	level     atomic.Int64
	formatter *Formatter

	deliveries atomic.Uint64
	failures   atomic.Uint64
}

// SinkHandle refers to a registered sink. Registrations are never removed.
type SinkHandle struct {
	reg *registration
}

// Sink returns the registered sink
func (h *SinkHandle) Sink() Sink {
	return h.reg.sink
}

// Name returns the diagnostic name of the registration
func (h *SinkHandle) Name() string {
	return h.reg.name
}

// Level returns the minimum level of the registration
func (h *SinkHandle) Level() int64 {
	return h.reg.level.Load()
}

// SetLevel changes the minimum level of the registration
func (h *SinkHandle) SetLevel(level int64) {
	h.reg.level.Store(level)
}

// Formatter returns the formatter used for this registration
func (h *SinkHandle) Formatter() *Formatter {
	return h.reg.formatter
}

// sinkName derives a registration name from the sink and its position
func sinkName(s Sink, index int) string {
	if n, ok := s.(namedSink); ok && n.Name() != "" {
		return fmt.Sprintf("%s#%d", n.Name(), index)
	}
	return fmt.Sprintf("%T#%d", s, index)
}
