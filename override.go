// FILE: lixenwraith/logsetup/override.go
package logsetup

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies "key=value" overrides to the configuration.
// The configuration is left unchanged when any override fails.
//
// Example:
//
//	cfg := logsetup.DefaultConfig()
//	err := cfg.ApplyOverride(
//	    "level=info",
//	    "error_file=/var/log/app/errors.log",
//	    "format=json",
//	)
func (c *Config) ApplyOverride(overrides ...string) error {
	next := c.Clone()

	var errors []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errors = append(errors, err)
			continue
		}
		if err := applyConfigField(next, key, value); err != nil {
			errors = append(errors, err)
		}
	}
	if len(errors) > 0 {
		return combineConfigErrors(errors)
	}

	if err := next.validate(); err != nil {
		return err
	}
	*c = *next
	return nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("logsetup: multiple configuration errors:")
	for i, err := range errors {
		errMsg := strings.TrimPrefix(err.Error(), "logsetup: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%w: %s", ErrInvalidArgument, sb.String())
}

// applyConfigField applies a single key-value override to a Config.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	case "level":
		return parseLevelField(&cfg.Level, key, value)
	case "console_level":
		return parseLevelField(&cfg.ConsoleLevel, key, value)
	case "error_file_level":
		return parseLevelField(&cfg.ErrorFileLevel, key, value)

	case "console_target":
		cfg.ConsoleTarget = value
	case "error_file":
		cfg.ErrorFile = value
	case "format":
		cfg.Format = value
	case "template":
		// Escaped newlines keep multi-line templates usable on a command line
		cfg.Template = strings.ReplaceAll(value, `\n`, "\n")
	case "date_format":
		cfg.DateFormat = value

	case "enable_console":
		return parseBoolField(&cfg.EnableConsole, key, value)
	case "color":
		return parseBoolField(&cfg.Color, key, value)
	case "enable_error_file":
		return parseBoolField(&cfg.EnableErrorFile, key, value)
	case "capture_main":
		return parseBoolField(&cfg.CaptureMain, key, value)
	case "capture_workers":
		return parseBoolField(&cfg.CaptureWorkers, key, value)
	case "log_debug_info":
		return parseBoolField(&cfg.LogDebugInfo, key, value)
	case "internal_errors_to_stderr":
		return parseBoolField(&cfg.InternalErrorsToStderr, key, value)

	case "heartbeat_level":
		return parseIntField(&cfg.HeartbeatLevel, key, value)
	case "heartbeat_interval_s":
		return parseIntField(&cfg.HeartbeatIntervalS, key, value)

	default:
		return invalidArgf("unknown configuration key '%s'", key)
	}
	return nil
}

// parseLevelField accepts both numeric and named levels
func parseLevelField(dst *int64, key, value string) error {
	if numVal, err := strconv.ParseInt(value, 10, 64); err == nil {
		*dst = numVal
		return nil
	}
	levelVal, err := Level(value)
	if err != nil {
		return fmtErrorf("invalid level value for %s '%s': %w", key, value, err)
	}
	*dst = levelVal
	return nil
}

func parseBoolField(dst *bool, key, value string) error {
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return invalidArgf("invalid boolean value for %s '%s': %v", key, value, err)
	}
	*dst = boolVal
	return nil
}

func parseIntField(dst *int64, key, value string) error {
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return invalidArgf("invalid integer value for %s '%s': %v", key, value, err)
	}
	*dst = intVal
	return nil
}
