// FILE: lixenwraith/logsetup/sink_socket.go
package logsetup

import (
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SocketSink streams length-prefixed records to a TCP peer. A failed
// connect backs off exponentially; a failed write drops the connection
// and the next delivery reconnects.
type SocketSink struct {
	mu     sync.Mutex
	addr   string
	conn   net.Conn
	closed bool

	retryDelay time.Duration
	retryAt    time.Time
	now        func() time.Time
	dial       func(network, addr string, timeout time.Duration) (net.Conn, error)
}

// NewSocketSink creates a sink for host:port. The connection is opened lazily.
func NewSocketSink(host string, port int) (*SocketSink, error) {
	if strings.TrimSpace(host) == "" {
		return nil, invalidArgf("socket host cannot be empty")
	}
	if port <= 0 || port > 65535 {
		return nil, invalidArgf("socket port out of range: %d", port)
	}
	return &SocketSink{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		now:  time.Now,
		dial: net.DialTimeout,
	}, nil
}

// Name implements namedSink
func (s *SocketSink) Name() string {
	return "socket:" + s.addr
}

// Addr returns the peer address
func (s *SocketSink) Addr() string {
	return s.addr
}

// Deliver writes one frame carrying text
func (s *SocketSink) Deliver(text string, _ *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmtErrorf("socket sink '%s' closed", s.addr)
	}
	if err := s.connect(); err != nil {
		return err
	}

	frame := AppendFrame(make([]byte, 0, frameHeaderLen+len(text)), []byte(text))
	if _, err := s.conn.Write(frame); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return fmtErrorf("failed to send to '%s': %w", s.addr, err)
	}
	return nil
}

// connect dials when disconnected and the backoff window has passed. Caller holds mu.
func (s *SocketSink) connect() error {
	if s.conn != nil {
		return nil
	}
	now := s.now()
	if now.Before(s.retryAt) {
		return fmtErrorf("connection to '%s' unavailable, retry at %s", s.addr, s.retryAt.Format(time.RFC3339))
	}

	conn, err := s.dial("tcp", s.addr, socketDialTimeout)
	if err != nil {
		if s.retryDelay == 0 {
			s.retryDelay = socketRetryStart
		} else {
			s.retryDelay = min(s.retryDelay*socketRetryFactor, socketRetryMax)
		}
		s.retryAt = now.Add(s.retryDelay)
		return fmtErrorf("failed to connect to '%s': %w", s.addr, err)
	}

	s.conn = conn
	s.retryDelay = 0
	s.retryAt = time.Time{}
	return nil
}

// Close closes the connection once
func (s *SocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// AppendFrame appends a uint32 big-endian length header and payload to dst
func AppendFrame(dst, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// ReadFrame reads one frame from r
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [frameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > maxFrameSize {
		return nil, fmtErrorf("frame of %d bytes exceeds limit %d", n, maxFrameSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FrameLen reports the payload length declared by a frame header, and
// whether buf holds a complete header
func FrameLen(buf []byte) (int, bool) {
	if len(buf) < frameHeaderLen {
		return 0, false
	}
	return int(binary.BigEndian.Uint32(buf[:frameHeaderLen])), true
}

// Frame layout constants for decoders
const (
	FrameHeaderLen = frameHeaderLen
	MaxFrameSize   = maxFrameSize
)
