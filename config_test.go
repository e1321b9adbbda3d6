// FILE: lixenwraith/logsetup/config_test.go
package logsetup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.True(t, cfg.EnableConsole)
	assert.Equal(t, LevelDebug, cfg.ConsoleLevel)
	assert.Equal(t, "stderr", cfg.ConsoleTarget)
	assert.True(t, cfg.EnableErrorFile)
	assert.Equal(t, "errors.log", cfg.ErrorFile)
	assert.Equal(t, LevelError, cfg.ErrorFileLevel)
	assert.Equal(t, FormatTxt, cfg.Format)
	assert.Equal(t, DefaultTemplate, cfg.Template)
	assert.Equal(t, DefaultDateFormat, cfg.DateFormat)
	assert.True(t, cfg.CaptureMain)
	assert.True(t, cfg.CaptureWorkers)
	assert.Equal(t, HeartbeatOff, cfg.HeartbeatLevel)
	assert.Equal(t, int64(60), cfg.HeartbeatIntervalS)
	assert.NoError(t, cfg.validate())
}

func TestConfigClone(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg1.Level = LevelWarn
	cfg1.ErrorFile = "/custom/errors.log"

	cfg2 := cfg1.Clone()

	assert.Equal(t, cfg1.Level, cfg2.Level)
	assert.Equal(t, cfg1.ErrorFile, cfg2.ErrorFile)

	cfg1.Level = LevelError
	assert.Equal(t, LevelWarn, cfg2.Level)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:      "invalid format",
			modify:    func(c *Config) { c.Format = "xml" },
			wantError: "invalid format",
		},
		{
			name:      "empty template",
			modify:    func(c *Config) { c.Template = " " },
			wantError: "template cannot be empty",
		},
		{
			name:      "unknown template field",
			modify:    func(c *Config) { c.Template = "{level} {hostname}" },
			wantError: "unknown template field",
		},
		{
			name:      "empty date format",
			modify:    func(c *Config) { c.DateFormat = "" },
			wantError: "date_format cannot be empty",
		},
		{
			name:      "invalid console target",
			modify:    func(c *Config) { c.ConsoleTarget = "stdlog" },
			wantError: "invalid console_target",
		},
		{
			name: "console target ignored when disabled",
			modify: func(c *Config) {
				c.EnableConsole = false
				c.ConsoleTarget = "stdlog"
			},
		},
		{
			name:      "empty error file",
			modify:    func(c *Config) { c.ErrorFile = "" },
			wantError: "error_file cannot be empty",
		},
		{
			name:      "heartbeat level out of range",
			modify:    func(c *Config) { c.HeartbeatLevel = 4 },
			wantError: "heartbeat_level must be between",
		},
		{
			name: "heartbeat without interval",
			modify: func(c *Config) {
				c.HeartbeatLevel = HeartbeatProc
				c.HeartbeatIntervalS = 0
			},
			wantError: "heartbeat_interval_s must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.validate()

			if tt.wantError != "" {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Contains(t, err.Error(), tt.wantError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyOverride(t *testing.T) {
	tests := []struct {
		name      string
		overrides []string
		verify    func(t *testing.T, cfg *Config)
		wantError bool
	}{
		{
			name:      "levels by name and number",
			overrides: []string{"level=info", "console_level=4", "error_file_level=critical"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, LevelInfo, cfg.Level)
				assert.Equal(t, LevelWarn, cfg.ConsoleLevel)
				assert.Equal(t, LevelCritical, cfg.ErrorFileLevel)
			},
		},
		{
			name:      "strings and booleans",
			overrides: []string{"format=json", "error_file=/tmp/app/err.log", "color=false", "capture_workers=false"},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, FormatJSON, cfg.Format)
				assert.Equal(t, "/tmp/app/err.log", cfg.ErrorFile)
				assert.False(t, cfg.Color)
				assert.False(t, cfg.CaptureWorkers)
			},
		},
		{
			name:      "escaped newline in template",
			overrides: []string{`template={level}\n{message}`},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "{level}\n{message}", cfg.Template)
			},
		},
		{
			name:      "unknown key",
			overrides: []string{"directory=/var/log"},
			wantError: true,
		},
		{
			name:      "bad boolean",
			overrides: []string{"color=maybe"},
			wantError: true,
		},
		{
			name:      "invalid after apply",
			overrides: []string{"format=yaml"},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.ApplyOverride(tt.overrides...)

			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Equal(t, DefaultConfig(), cfg, "failed overrides leave the config unchanged")
				return
			}
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestApplyOverrideMultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyOverride("noequals", "color=maybe", "unknown=1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "multiple configuration errors")
	assert.Contains(t, err.Error(), "1. ")
	assert.Contains(t, err.Error(), "3. ")
}

func TestNewConfigFromFile(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := NewConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("values under logsetup table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.toml")
		content := `
[logsetup]
level = 0
format = "json"
error_file = "/var/log/app/errors.log"
color = false
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, LevelInfo, cfg.Level)
		assert.Equal(t, FormatJSON, cfg.Format)
		assert.Equal(t, "/var/log/app/errors.log", cfg.ErrorFile)
		assert.False(t, cfg.Color)
		assert.True(t, cfg.EnableConsole)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[logsetup]\nformat = \"xml\"\n"), 0644))

		_, err := NewConfigFromFile(path)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestNewConfigFromDefaults(t *testing.T) {
	cfg, err := NewConfigFromDefaults(map[string]any{
		"level":          "warn",
		"console_target": "stdout",
		"log_debug_info": false,
	})
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, cfg.Level)
	assert.Equal(t, "stdout", cfg.ConsoleTarget)
	assert.False(t, cfg.LogDebugInfo)

	_, err = NewConfigFromDefaults(map[string]any{"nonexistent": 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewConfigFromDefaults(map[string]any{"color": "yes"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
