// FILE: lixenwraith/logsetup/sink_file_test.go
package logsetup

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(ConsoleOptions{Writer: &buf, Color: true})

	require.NoError(t, s.Deliver("first", testRecord()))
	require.NoError(t, s.Deliver("second", testRecord()))
	assert.Equal(t, "first\nsecond\n", buf.String(), "buffers are not terminals, no colour codes")

	require.NoError(t, s.Close())
	assert.Error(t, s.Deliver("after close", testRecord()))
	assert.NoError(t, s.Close())
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "app.log")
	s, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, s.Deliver("line one", testRecord()))
	require.NoError(t, s.Deliver("line two", testRecord()))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))

	assert.Error(t, s.Deliver("late", testRecord()))

	_, err = NewFileSink("  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	s, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Deliver("appended", testRecord()))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing\nappended\n", string(data))
}

func TestRotatingFileSink(t *testing.T) {
	t.Run("keeps exactly backupCount backups", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rot.log")
		s, err := NewRotatingFileSink(path, 100, 2)
		require.NoError(t, err)
		defer s.Close()

		// 60 bytes per line including the newline, two lines never fit in 100
		line := strings.Repeat("x", 59)
		for i := 0; i < 4; i++ {
			require.NoError(t, s.Deliver(line, testRecord()))
		}

		assert.Equal(t, uint64(3), s.Rotations())
		assert.ElementsMatch(t, []string{"rot.log", "rot.log.1", "rot.log.2"}, listDir(t, dir))

		for _, name := range []string{"rot.log", "rot.log.1", "rot.log.2"} {
			info, err := os.Stat(filepath.Join(dir, name))
			require.NoError(t, err)
			assert.Equal(t, int64(60), info.Size(), name)
		}
	})

	t.Run("backups shift newest to .1", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "shift.log")
		s, err := NewRotatingFileSink(path, 10, 3)
		require.NoError(t, err)
		defer s.Close()

		for _, msg := range []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"} {
			require.NoError(t, s.Deliver(msg, testRecord()))
		}

		active, _ := os.ReadFile(path)
		first, _ := os.ReadFile(path + ".1")
		second, _ := os.ReadFile(path + ".2")
		assert.Equal(t, "cccccccc\n", string(active))
		assert.Equal(t, "bbbbbbbb\n", string(first))
		assert.Equal(t, "aaaaaaaa\n", string(second))
	})

	t.Run("zero backups truncates in place", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "trunc.log")
		s, err := NewRotatingFileSink(path, 100, 0)
		require.NoError(t, err)
		defer s.Close()

		line := strings.Repeat("y", 59)
		require.NoError(t, s.Deliver(line, testRecord()))
		require.NoError(t, s.Deliver(line, testRecord()))

		assert.Equal(t, uint64(1), s.Rotations())
		assert.Equal(t, []string{"trunc.log"}, listDir(t, dir))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, line+"\n", string(data))
	})

	t.Run("non-positive max never rotates", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewRotatingFileSink(filepath.Join(dir, "grow.log"), 0, 2)
		require.NoError(t, err)
		defer s.Close()

		for i := 0; i < 10; i++ {
			require.NoError(t, s.Deliver(strings.Repeat("z", 50), testRecord()))
		}
		assert.Zero(t, s.Rotations())
		assert.Len(t, listDir(t, dir), 1)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		_, err := NewRotatingFileSink("", 100, 1)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = NewRotatingFileSink(filepath.Join(t.TempDir(), "x.log"), 100, -1)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("concurrent deliveries keep every line", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "conc.log")
		s, err := NewRotatingFileSink(path, 1<<20, 1)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					assert.NoError(t, s.Deliver("concurrent line", testRecord()))
				}
			}()
		}
		wg.Wait()
		require.NoError(t, s.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 200, strings.Count(string(data), "concurrent line\n"))
	})
}

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTimedRotatingFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timed.log")
	clock := &fakeClock{now: time.Now()}

	s, err := newTimedRotatingFileSink(path, time.Hour, 2, clock.Now)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Deliver("before boundary", testRecord()))
	clock.Advance(30 * time.Minute)
	require.NoError(t, s.Deliver("still same interval", testRecord()))
	assert.Zero(t, s.Rotations())

	for i := 0; i < 4; i++ {
		clock.Advance(time.Hour)
		// Backup names carry millisecond timestamps
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, s.Deliver("next interval", testRecord()))
	}
	assert.Equal(t, uint64(4), s.Rotations())

	// Pruning runs asynchronously inside lumberjack
	require.Eventually(t, func() bool {
		return len(listDir(t, dir)) == 3
	}, 2*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "next interval\n", string(data))
}

func TestTimedRotatingFileSinkSkipsMissedIntervals(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: time.Now()}
	s, err := newTimedRotatingFileSink(filepath.Join(dir, "gap.log"), time.Minute, 0, clock.Now)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Deliver("one", testRecord()))
	clock.Advance(10 * time.Minute)
	require.NoError(t, s.Deliver("two", testRecord()))
	require.NoError(t, s.Deliver("three", testRecord()))

	assert.Equal(t, uint64(1), s.Rotations(), "one rollover for a long idle gap")
}

func TestTimedRotatingFileSinkInvalid(t *testing.T) {
	_, err := NewTimedRotatingFileSink(filepath.Join(t.TempDir(), "x.log"), 0, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewTimedRotatingFileSink("", time.Hour, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewTimedRotatingFileSink(filepath.Join(t.TempDir(), "x.log"), time.Hour, -2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTimedRotatingFileSinkIgnoresSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.log")
	s, err := NewTimedRotatingFileSink(path, time.Hour, 1)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, timedMaxSizeMB, s.lj.MaxSize)

	if testing.Short() {
		t.Skip("large write skipped in short mode")
	}
	// Larger than lumberjack's 100 MB default limit
	big := strings.Repeat("x", 101<<20)
	require.NoError(t, s.Deliver(big, testRecord()))
	require.NoError(t, s.Deliver("tail", testRecord()))

	assert.Zero(t, s.Rotations())
	assert.Equal(t, []string{"big.log"}, listDir(t, dir))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(101<<20+1+len("tail\n")), info.Size())
}
