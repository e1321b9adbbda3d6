// FILE: lixenwraith/logsetup/sink_console.go
package logsetup

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ConsoleOptions configures a console sink
type ConsoleOptions struct {
	Writer io.Writer // os.Stderr when nil
	Color  bool      // colour lines by level when Writer is a terminal
}

// ConsoleSink writes one line per record to a stream. Close does not close the stream.
type ConsoleSink struct {
	mu     sync.Mutex
	w      io.Writer
	color  bool
	closed bool
}

var levelColors = map[int64]string{
	LevelDebug:    "\x1b[36m",
	LevelInfo:     "\x1b[32m",
	LevelWarn:     "\x1b[33m",
	LevelError:    "\x1b[31m",
	LevelCritical: "\x1b[1;31m",
}

const colorReset = "\x1b[0m"

// NewConsoleSink creates a console sink
func NewConsoleSink(opts ConsoleOptions) *ConsoleSink {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleSink{
		w:     w,
		color: opts.Color && isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Name implements namedSink
func (s *ConsoleSink) Name() string {
	return "console"
}

// Deliver writes text followed by a newline
func (s *ConsoleSink) Deliver(text string, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmtErrorf("console sink closed")
	}

	line := text + "\n"
	if s.color {
		if c, ok := levelColors[r.Level]; ok {
			line = c + text + colorReset + "\n"
		}
	}
	_, err := io.WriteString(s.w, line)
	return err
}

// Sync flushes the stream when it is a file
func (s *ConsoleSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.w.(*os.File); ok {
		// Terminals and pipes reject fsync
		_ = f.Sync()
	}
	return nil
}

// Close stops further deliveries
func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
