// FILE: lixenwraith/logsetup/sink_rotate.go
package logsetup

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// RotatingFileSink appends to a file and rolls it over to numbered backups
// (path.1 newest ... path.N oldest) once a write would exceed maxBytes.
type RotatingFileSink struct {
	mu          sync.Mutex
	path        string
	maxBytes    int64
	backupCount int
	file        *os.File
	size        int64
	closed      bool

	rotations atomic.Uint64
}

// NewRotatingFileSink opens path for appending. maxBytes <= 0 disables
// rotation, backupCount 0 truncates the file in place on rotation.
func NewRotatingFileSink(path string, maxBytes int64, backupCount int) (*RotatingFileSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, invalidArgf("file path cannot be empty")
	}
	if backupCount < 0 {
		return nil, invalidArgf("backup count cannot be negative: %d", backupCount)
	}

	f, err := openLogFile(path, false)
	if err != nil {
		return nil, err
	}
	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	return &RotatingFileSink{
		path:        path,
		maxBytes:    maxBytes,
		backupCount: backupCount,
		file:        f,
		size:        size,
	}, nil
}

// Name implements namedSink
func (s *RotatingFileSink) Name() string {
	return "rotating:" + s.path
}

// Rotations returns how many rollovers happened
func (s *RotatingFileSink) Rotations() uint64 {
	return s.rotations.Load()
}

// Deliver appends text, rotating first when the line would not fit
func (s *RotatingFileSink) Deliver(text string, _ *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmtErrorf("rotating sink '%s' closed", s.path)
	}

	line := text + "\n"
	if s.maxBytes > 0 && s.size > 0 && s.size+int64(len(line)) > s.maxBytes {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	n, err := io.WriteString(s.file, line)
	s.size += int64(n)
	return err
}

// rotate shifts backups up by one, moves the active file to path.1 and
// reopens an empty active file. Caller holds mu.
func (s *RotatingFileSink) rotate() error {
	// The old handle is unusable after this regardless of the close result
	_ = closeLogFile(s.file)

	if s.backupCount > 0 {
		for i := s.backupCount - 1; i >= 1; i-- {
			src := s.backupName(i)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			dst := s.backupName(i + 1)
			_ = os.Remove(dst)
			if err := os.Rename(src, dst); err != nil {
				return s.reopenAfter(fmtErrorf("failed to shift backup '%s': %w", src, err))
			}
		}
		dst := s.backupName(1)
		_ = os.Remove(dst)
		if err := os.Rename(s.path, dst); err != nil {
			return s.reopenAfter(fmtErrorf("failed to rename '%s' to '%s': %w", s.path, dst, err))
		}
	}

	f, err := openLogFile(s.path, true)
	if err != nil {
		return err
	}
	s.file = f
	s.size = 0
	s.rotations.Add(1)
	return nil
}

// reopenAfter restores an active file handle after a failed rotation
func (s *RotatingFileSink) reopenAfter(cause error) error {
	f, err := openLogFile(s.path, false)
	if err != nil {
		return fmtErrorf("%v; reopen failed: %w", cause, err)
	}
	s.file = f
	if info, err := f.Stat(); err == nil {
		s.size = info.Size()
	}
	return cause
}

func (s *RotatingFileSink) backupName(i int) string {
	return s.path + "." + strconv.Itoa(i)
}

// Sync commits the active file to disk
func (s *RotatingFileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.file.Sync()
}

// Close syncs and closes the active file once
func (s *RotatingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return closeLogFile(s.file)
}
