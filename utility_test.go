// FILE: lixenwraith/logsetup/utility_test.go
package logsetup

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{" info ", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"critical", LevelCritical, false},
		{"fatal", LevelCritical, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := Level(tt.input)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, level)
			}
		})
	}
}

func TestParseKeyValue(t *testing.T) {
	tests := []struct {
		input     string
		wantKey   string
		wantValue string
		wantErr   bool
	}{
		{"key=value", "key", "value", false},
		{" key = value ", "key", "value", false},
		{"key=value=with=equals", "key", "value=with=equals", false},
		{"noequals", "", "", true},
		{"=value", "", "", true},
		{"key=", "key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, value, err := parseKeyValue(tt.input)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantKey, key)
				assert.Equal(t, tt.wantValue, value)
			}
		})
	}
}

func TestFmtErrorf(t *testing.T) {
	err := fmtErrorf("test error: %s", "details")
	assert.Error(t, err)
	assert.Equal(t, "logsetup: test error: details", err.Error())

	// Already prefixed
	err = fmtErrorf("logsetup: already prefixed")
	assert.Equal(t, "logsetup: already prefixed", err.Error())
}

func TestShortFuncName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"main.main", "main"},
		{"github.com/acme/app/store.(*DB).Query", "Query"},
		{"github.com/acme/app/store.Open.func1", "(anonymous in Open)"},
		{"", "(unknown)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, shortFuncName(tt.input))
		})
	}
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "server", moduleName("/src/app/server.go"))
	assert.Equal(t, "(unknown)", moduleName(""))
}

func TestCallerFrame(t *testing.T) {
	frame, ok := callerFrame(0)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(frame.Function, "TestCallerFrame"), frame.Function)
	assert.Equal(t, "utility_test", moduleName(frame.File))
}

func TestGoroutineID(t *testing.T) {
	own := goroutineID()
	assert.NotZero(t, own)

	var other uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = goroutineID()
	}()
	wg.Wait()

	assert.NotZero(t, other)
	assert.NotEqual(t, own, other)
}

func TestThreadName(t *testing.T) {
	assert.Equal(t, "main", threadName(1))
	assert.Equal(t, "goroutine-77", threadName(77))

	threadNames.Store(uint64(77), "uploader")
	defer threadNames.Delete(uint64(77))
	assert.Equal(t, "uploader", threadName(77))
}

func TestJoinArgs(t *testing.T) {
	assert.Equal(t, "", joinArgs(nil))
	assert.Equal(t, "single", joinArgs([]any{"single"}))
	assert.Equal(t, "answer is 42 true", joinArgs([]any{"answer is", 42, true}))
}
