// FILE: lixenwraith/logsetup/builder_test.go
package logsetup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	t.Run("successful build returns configured dispatcher", func(t *testing.T) {
		errPath := filepath.Join(t.TempDir(), "nested", "errors.log")

		b := NewBuilder().
			LevelString("info").
			Console(false).
			ErrorFile(errPath).
			ErrorFileLevel(LevelWarn).
			Format("json")
		d, err := b.Build()
		require.NoError(t, err, "Builder.Build() should not return an error on valid config")
		require.NotNil(t, d)
		defer d.Shutdown()

		cfg := b.Config()
		assert.Equal(t, LevelInfo, cfg.Level)
		assert.Equal(t, FormatJSON, cfg.Format)
		assert.Equal(t, LevelInfo, d.Level())

		stats := d.Stats()
		require.Len(t, stats.Sinks, 1, "console disabled, only the error file remains")
		assert.Equal(t, LevelWarn, stats.Sinks[0].Level)

		l := d.Logger("built")
		l.Info("not written")
		l.Warn("written")
		require.NoError(t, d.Shutdown())

		data, err := os.ReadFile(errPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 1)

		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
		assert.Equal(t, "written", rec["message"])
		assert.Equal(t, "built", rec["logger"])
	})

	t.Run("builder error is returned on build", func(t *testing.T) {
		d, err := NewBuilder().
			LevelString("invalid-level").
			Build()

		assert.Nil(t, d)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("override errors surface", func(t *testing.T) {
		_, err := NewBuilder().Override("console_target=printer").Build()
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("validation errors surface", func(t *testing.T) {
		_, err := NewBuilder().Template("{nope}").Build()
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestBuilder_Heartbeat(t *testing.T) {
	b := NewBuilder().Console(false).Heartbeat(HeartbeatSink, 30*time.Second)
	cfg := b.Config()
	assert.Equal(t, HeartbeatSink, cfg.HeartbeatLevel)
	assert.Equal(t, int64(30), cfg.HeartbeatIntervalS)

	d, err := b.Build()
	require.NoError(t, err)
	_ = d.Shutdown()

	_, err = NewBuilder().Console(false).Heartbeat(HeartbeatProc, 500*time.Millisecond).Build()
	assert.ErrorIs(t, err, ErrInvalidArgument, "sub-second interval truncates to zero")
}
