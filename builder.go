// FILE: lixenwraith/logsetup/builder.go
package logsetup

import "time"

// Builder provides a fluent API for building a dispatcher from a Config.
// Errors are accumulated and reported by Build.
type Builder struct {
	cfg *Config
	err error
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a dispatcher with the configured default sinks.
func (b *Builder) Build() (*Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewDispatcherFromConfig(b.cfg)
}

// Config returns a copy of the configuration built so far
func (b *Builder) Config() *Config {
	return b.cfg.Clone()
}

// Level sets the global level.
func (b *Builder) Level(level int64) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the global level from a name.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	levelVal, err := Level(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = levelVal
	return b
}

// Console enables or disables the console sink.
func (b *Builder) Console(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// ConsoleLevel sets the console sink level.
func (b *Builder) ConsoleLevel(level int64) *Builder {
	b.cfg.ConsoleLevel = level
	return b
}

// ConsoleTarget selects "stdout" or "stderr".
func (b *Builder) ConsoleTarget(target string) *Builder {
	b.cfg.ConsoleTarget = target
	return b
}

// Color toggles ANSI colours on terminals.
func (b *Builder) Color(enable bool) *Builder {
	b.cfg.Color = enable
	return b
}

// ErrorFile enables the error file sink at path.
func (b *Builder) ErrorFile(path string) *Builder {
	b.cfg.EnableErrorFile = path != ""
	b.cfg.ErrorFile = path
	return b
}

// ErrorFileLevel sets the error file sink level.
func (b *Builder) ErrorFileLevel(level int64) *Builder {
	b.cfg.ErrorFileLevel = level
	return b
}

// Format sets the output format of the default sinks.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// Template sets the txt template of the default sinks.
func (b *Builder) Template(tmpl string) *Builder {
	b.cfg.Template = tmpl
	return b
}

// DateFormat sets the time layout of the default sinks.
func (b *Builder) DateFormat(layout string) *Builder {
	b.cfg.DateFormat = layout
	return b
}

// InternalErrorsToStderr toggles reporting of sink failures.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}

// Heartbeat sets the heartbeat detail level and interval used by Init.
func (b *Builder) Heartbeat(level int64, interval time.Duration) *Builder {
	b.cfg.HeartbeatLevel = level
	b.cfg.HeartbeatIntervalS = int64(interval / time.Second)
	return b
}

// Override applies "key=value" overrides.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.cfg.ApplyOverride(overrides...); err != nil {
		b.err = err
	}
	return b
}

// Example usage:
// d, err := logsetup.NewBuilder().
//
//	LevelString("info").
//	ErrorFile("/var/log/app/errors.log").
//	Format("json").
//	Build()
//
// if err == nil {
//
//	 defer d.Shutdown()
//	 d.Logger("app").Info("Dispatcher initialized")
//
// }
