// FILE: lixenwraith/logsetup/receiver/receiver.go
package receiver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/logsetup"
	"github.com/lixenwraith/logsetup/compat"
	"github.com/panjf2000/gnet/v2"
)

// Server accepts connections from socket sinks, decodes their
// length-prefixed JSON frames and re-emits the records on a local dispatcher
type Server struct {
	gnet.BuiltinEventEngine

	addr      string
	d         *logsetup.Dispatcher
	logger    *logsetup.Logger
	multicore bool

	mu      sync.Mutex
	eng     gnet.Engine
	booted  bool
	ready   chan struct{}
	stopped chan struct{}

	state State
}

// State holds the server counters
type State struct {
	Connections atomic.Int64  // Currently open connections
	Received    atomic.Uint64 // Records decoded and emitted
	Rejected    atomic.Uint64 // Frames that failed to decode
	Oversized   atomic.Uint64 // Connections closed for exceeding the frame limit
}

// Stats is a snapshot of the server counters
type Stats struct {
	Connections int64
	Received    uint64
	Rejected    uint64
	Oversized   uint64
}

// Option configures a Server
type Option func(*Server)

// WithMulticore runs one event loop per CPU
func WithMulticore(enabled bool) Option {
	return func(s *Server) {
		s.multicore = enabled
	}
}

// WithLogger sets the logger for the server's own diagnostics
func WithLogger(l *logsetup.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server listening on addr, e.g. "tcp://0.0.0.0:9020",
// that emits decoded records on d
func New(addr string, d *logsetup.Dispatcher, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		d:       d,
		logger:  d.Logger("receiver"),
		ready:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves until Stop is called
func (s *Server) Run() error {
	defer close(s.stopped)
	err := gnet.Run(s, s.addr,
		gnet.WithMulticore(s.multicore),
		gnet.WithReusePort(true),
		gnet.WithLogger(compat.NewGnetAdapter(s.logger)),
	)
	if err != nil {
		return fmt.Errorf("logsetup/receiver: failed to serve %s: %w", s.addr, err)
	}
	return nil
}

// Ready is closed once the engine accepts connections
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Stop shuts the engine down and waits for Run to return
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	eng, booted := s.eng, s.booted
	s.mu.Unlock()
	if !booted {
		return fmt.Errorf("logsetup/receiver: server not running")
	}

	if err := eng.Stop(ctx); err != nil {
		return fmt.Errorf("logsetup/receiver: failed to stop: %w", err)
	}
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the server counters
func (s *Server) Stats() Stats {
	return Stats{
		Connections: s.state.Connections.Load(),
		Received:    s.state.Received.Load(),
		Rejected:    s.state.Rejected.Load(),
		Oversized:   s.state.Oversized.Load(),
	}
}

// OnBoot records the engine used by Stop
func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.mu.Lock()
	s.eng = eng
	s.booted = true
	s.mu.Unlock()
	close(s.ready)
	s.logger.Infof("Receiver listening on %s", s.addr)
	return gnet.None
}

// OnOpen counts the connection
func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	s.state.Connections.Add(1)
	s.logger.Debugf("Sink connected from %s", c.RemoteAddr())
	return nil, gnet.None
}

// OnClose counts the disconnection
func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	s.state.Connections.Add(-1)
	if err != nil {
		s.logger.Warnf("Sink connection from %s closed: %v", c.RemoteAddr(), err)
	}
	return gnet.None
}

// OnTraffic decodes every complete frame in the inbound buffer. Partial
// frames stay buffered until more data arrives.
func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	for {
		header, err := c.Peek(logsetup.FrameHeaderLen)
		if err != nil {
			return gnet.None
		}
		size, _ := logsetup.FrameLen(header)
		if size > logsetup.MaxFrameSize {
			s.state.Oversized.Add(1)
			s.logger.Warnf("Closing %s: frame of %d bytes exceeds limit", c.RemoteAddr(), size)
			return gnet.Close
		}

		total := logsetup.FrameHeaderLen + size
		if c.InboundBuffered() < total {
			return gnet.None
		}
		frame, err := c.Peek(total)
		if err != nil {
			return gnet.None
		}

		// Decode before Discard, the peeked slice is only valid until then
		r, derr := logsetup.ParseRecordJSON(frame[logsetup.FrameHeaderLen:])
		if _, err := c.Discard(total); err != nil {
			return gnet.Close
		}
		if derr != nil {
			s.state.Rejected.Add(1)
			s.logger.Warnf("Dropping frame from %s: %v", c.RemoteAddr(), derr)
			continue
		}

		s.state.Received.Add(1)
		s.d.Emit(r)
	}
}
