// FILE: lixenwraith/logsetup/sink_file.go
package logsetup

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileSink appends one line per record to a file
type FileSink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// NewFileSink opens path for appending, creating parent directories
func NewFileSink(path string) (*FileSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, invalidArgf("file path cannot be empty")
	}
	f, err := openLogFile(path, false)
	if err != nil {
		return nil, err
	}
	return &FileSink{path: path, file: f}, nil
}

// openLogFile creates the parent directory and opens path for writing
func openLogFile(path string, truncate bool) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmtErrorf("failed to create log directory for '%s': %w", path, err)
	}
	flags := os.O_APPEND | os.O_CREATE | os.O_WRONLY
	if truncate {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmtErrorf("failed to open/create log file '%s': %w", path, err)
	}
	return f, nil
}

// Name implements namedSink
func (s *FileSink) Name() string {
	return "file:" + s.path
}

// Path returns the file path
func (s *FileSink) Path() string {
	return s.path
}

// Deliver appends text and a newline
func (s *FileSink) Deliver(text string, _ *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmtErrorf("file sink '%s' closed", s.path)
	}
	_, err := io.WriteString(s.file, text+"\n")
	return err
}

// Sync commits the file to disk
func (s *FileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.file.Sync()
}

// Close syncs and closes the file once
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return closeLogFile(s.file)
}

// closeLogFile syncs and closes f, reporting both failures
func closeLogFile(f *os.File) error {
	var finalErr error
	if err := f.Sync(); err != nil {
		finalErr = fmtErrorf("failed to sync log file '%s': %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		closeErr := fmtErrorf("failed to close log file '%s': %w", f.Name(), err)
		if finalErr == nil {
			return closeErr
		}
		return fmtErrorf("%v; %w", finalErr, closeErr)
	}
	return finalErr
}
