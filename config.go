// FILE: lixenwraith/logsetup/config.go
package logsetup

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/lixenwraith/config"
)

// configPrefix is the TOML table holding the settings
const configPrefix = "logsetup."

// Config holds the settings applied by Init
type Config struct {
	// Global threshold
	Level int64 `toml:"level"`

	// Console sink
	EnableConsole bool   `toml:"enable_console"`
	ConsoleLevel  int64  `toml:"console_level"`
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"
	Color         bool   `toml:"color"`          // ANSI colours when the target is a terminal

	// Error file sink
	EnableErrorFile bool   `toml:"enable_error_file"`
	ErrorFile       string `toml:"error_file"`
	ErrorFileLevel  int64  `toml:"error_file_level"`

	// Formatting shared by the default sinks
	Format     string `toml:"format"` // "txt", "json" or "raw"
	Template   string `toml:"template"`
	DateFormat string `toml:"date_format"`

	// Panic capture
	CaptureMain    bool `toml:"capture_main"`
	CaptureWorkers bool `toml:"capture_workers"`

	// Diagnostics
	LogDebugInfo           bool `toml:"log_debug_info"`            // Log Go and platform versions after init
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Report sink failures to stderr

	// Heartbeat
	HeartbeatLevel     int64 `toml:"heartbeat_level"`      // 0=disabled, 1=proc, 2=+sinks, 3=+sys
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // Seconds between heartbeats
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Level: LevelDebug,

	EnableConsole: true,
	ConsoleLevel:  LevelDebug,
	ConsoleTarget: "stderr",
	Color:         true,

	EnableErrorFile: true,
	ErrorFile:       "errors.log",
	ErrorFileLevel:  LevelError,

	Format:     FormatTxt,
	Template:   DefaultTemplate,
	DateFormat: DefaultDateFormat,

	CaptureMain:    true,
	CaptureWorkers: true,

	LogDebugInfo:           true,
	InternalErrorsToStderr: true,

	HeartbeatLevel:     HeartbeatOff,
	HeartbeatIntervalS: 60,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads the [logsetup] table of a TOML file over the
// defaults and returns a validated Config. A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
// keyed by TOML name
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig copies the loader values found under prefix into cfg
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}
		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return invalidArgf("unknown config key: %s", key)
		}
		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with type conversion. Level fields also
// accept level names.
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return invalidArgf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			field.SetInt(int64(v))
		case string:
			levelVal, err := Level(v)
			if err != nil {
				return err
			}
			field.SetInt(levelVal)
		default:
			return invalidArgf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return invalidArgf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Format != FormatTxt && c.Format != FormatJSON && c.Format != FormatRaw {
		return invalidArgf("invalid format: '%s' (use txt, json, or raw)", c.Format)
	}

	if c.Format == FormatTxt && strings.TrimSpace(c.Template) == "" {
		return invalidArgf("template cannot be empty for txt format")
	}

	if strings.TrimSpace(c.DateFormat) == "" {
		return invalidArgf("date_format cannot be empty")
	}

	if c.EnableConsole && c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return invalidArgf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	if c.EnableErrorFile && strings.TrimSpace(c.ErrorFile) == "" {
		return invalidArgf("error_file cannot be empty when the error file is enabled")
	}

	if c.HeartbeatLevel < HeartbeatOff || c.HeartbeatLevel > HeartbeatSys {
		return invalidArgf("heartbeat_level must be between %d and %d, got %d", HeartbeatOff, HeartbeatSys, c.HeartbeatLevel)
	}

	if c.HeartbeatLevel > HeartbeatOff && c.HeartbeatIntervalS <= 0 {
		return invalidArgf("heartbeat_interval_s must be positive when the heartbeat is enabled")
	}

	if _, err := NewFormatter(c.FormatOptions()); err != nil {
		return err
	}
	return nil
}

// FormatOptions returns the formatter options of the default sinks
func (c *Config) FormatOptions() FormatOptions {
	return FormatOptions{
		Type:       c.Format,
		Template:   c.Template,
		DateFormat: c.DateFormat,
	}
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}
