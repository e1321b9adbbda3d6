// FILE: lixenwraith/logsetup/sink_timed.go
package logsetup

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// timedMaxSizeMB disables lumberjack's own size-based rotation
const timedMaxSizeMB = math.MaxInt / (1 << 20)

// TimedRotatingFileSink rolls its file over every interval and never by size.
// Backups are timestamped by lumberjack and pruned to backupCount, 0 keeps all.
// Pruning runs in lumberjack's background goroutine, so old backups may
// outlive a rollover briefly. That goroutine is not stopped by Close and
// stays for the life of the process, one per sink.
type TimedRotatingFileSink struct {
	mu         sync.Mutex
	path       string
	lj         *lumberjack.Logger
	interval   time.Duration
	rolloverAt time.Time
	now        func() time.Time
	closed     bool

	rotations atomic.Uint64
}

// NewTimedRotatingFileSink opens path and schedules the first rollover one
// interval after the existing file's modification time, or after now.
func NewTimedRotatingFileSink(path string, interval time.Duration, backupCount int) (*TimedRotatingFileSink, error) {
	return newTimedRotatingFileSink(path, interval, backupCount, time.Now)
}

func newTimedRotatingFileSink(path string, interval time.Duration, backupCount int, now func() time.Time) (*TimedRotatingFileSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, invalidArgf("file path cannot be empty")
	}
	if interval <= 0 {
		return nil, invalidArgf("rotation interval must be positive: %v", interval)
	}
	if backupCount < 0 {
		return nil, invalidArgf("backup count cannot be negative: %d", backupCount)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmtErrorf("failed to create log directory for '%s': %w", path, err)
	}

	start := now()
	if info, err := os.Stat(path); err == nil {
		start = info.ModTime()
	}

	return &TimedRotatingFileSink{
		path: path,
		lj: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    timedMaxSizeMB,
			MaxBackups: backupCount,
			LocalTime:  true,
		},
		interval:   interval,
		rolloverAt: start.Add(interval),
		now:        now,
	}, nil
}

// Name implements namedSink
func (s *TimedRotatingFileSink) Name() string {
	return "timed:" + s.path
}

// Rotations returns how many interval rollovers happened
func (s *TimedRotatingFileSink) Rotations() uint64 {
	return s.rotations.Load()
}

// Deliver appends text, rotating first when the interval boundary passed
func (s *TimedRotatingFileSink) Deliver(text string, _ *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmtErrorf("timed sink '%s' closed", s.path)
	}

	now := s.now()
	if !now.Before(s.rolloverAt) {
		if err := s.lj.Rotate(); err != nil {
			return fmtErrorf("failed to rotate '%s': %w", s.path, err)
		}
		s.rotations.Add(1)
		for !s.rolloverAt.After(now) {
			s.rolloverAt = s.rolloverAt.Add(s.interval)
		}
	}

	_, err := s.lj.Write([]byte(text + "\n"))
	return err
}

// Close closes the active file once
func (s *TimedRotatingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.lj.Close()
}
