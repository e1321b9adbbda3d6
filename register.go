// FILE: lixenwraith/logsetup/register.go
package logsetup

import (
	"os"
	"time"
)

// registerNew registers a freshly built sink, closing it when registration fails
func (d *Dispatcher) registerNew(s Sink, level int64, fo FormatOptions) (*SinkHandle, error) {
	f, err := NewFormatter(fo)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	h, err := d.Register(s, level, f)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return h, nil
}

// RegisterConsole registers a console sink
func (d *Dispatcher) RegisterConsole(level int64, opts ConsoleOptions, fo FormatOptions) (*SinkHandle, error) {
	return d.registerNew(NewConsoleSink(opts), level, fo)
}

// RegisterFile registers an appending file sink
func (d *Dispatcher) RegisterFile(level int64, path string, fo FormatOptions) (*SinkHandle, error) {
	s, err := NewFileSink(path)
	if err != nil {
		return nil, err
	}
	return d.registerNew(s, level, fo)
}

// RegisterRotatingFile registers a size-rotating file sink
func (d *Dispatcher) RegisterRotatingFile(level int64, path string, maxBytes int64, backupCount int, fo FormatOptions) (*SinkHandle, error) {
	s, err := NewRotatingFileSink(path, maxBytes, backupCount)
	if err != nil {
		return nil, err
	}
	return d.registerNew(s, level, fo)
}

// RegisterTimedRotatingFile registers a time-rotating file sink
func (d *Dispatcher) RegisterTimedRotatingFile(level int64, path string, interval time.Duration, backupCount int, fo FormatOptions) (*SinkHandle, error) {
	s, err := NewTimedRotatingFileSink(path, interval, backupCount)
	if err != nil {
		return nil, err
	}
	return d.registerNew(s, level, fo)
}

// RegisterSocket registers a socket sink sending json records
func (d *Dispatcher) RegisterSocket(level int64, host string, port int) (*SinkHandle, error) {
	s, err := NewSocketSink(host, port)
	if err != nil {
		return nil, err
	}
	return d.registerNew(s, level, FormatOptions{Type: FormatJSON})
}

// RegisterPushNotification registers a Prowl push notification sink
func (d *Dispatcher) RegisterPushNotification(level int64, opts PushOptions, fo FormatOptions) (*SinkHandle, error) {
	s, err := NewPushSink(opts)
	if err != nil {
		return nil, err
	}
	return d.registerNew(s, level, fo)
}

// RegisterMailgun registers a Mailgun email sink
func (d *Dispatcher) RegisterMailgun(level int64, opts MailgunOptions, fo FormatOptions) (*SinkHandle, error) {
	s, err := NewMailgunSink(opts)
	if err != nil {
		return nil, err
	}
	return d.registerNew(s, level, fo)
}

// RegisterSMTP registers an SMTP email sink
func (d *Dispatcher) RegisterSMTP(level int64, opts SMTPOptions, fo FormatOptions) (*SinkHandle, error) {
	s, err := NewSMTPSink(opts)
	if err != nil {
		return nil, err
	}
	return d.registerNew(s, level, fo)
}

// NewDispatcherFromConfig builds a dispatcher with the console and error
// file sinks described by cfg
func NewDispatcherFromConfig(cfg *Config) (*Dispatcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []DispatcherOption{WithLevel(cfg.Level)}
	if !cfg.InternalErrorsToStderr {
		opts = append(opts, WithErrorOutput(nil))
	}
	d := NewDispatcher(opts...)
	fo := cfg.FormatOptions()

	if cfg.EnableConsole {
		target := os.Stderr
		if cfg.ConsoleTarget == "stdout" {
			target = os.Stdout
		}
		if _, err := d.RegisterConsole(cfg.ConsoleLevel, ConsoleOptions{Writer: target, Color: cfg.Color}, fo); err != nil {
			return nil, err
		}
	}

	if cfg.EnableErrorFile {
		if _, err := d.RegisterFile(cfg.ErrorFileLevel, cfg.ErrorFile, fo); err != nil {
			_ = d.Shutdown()
			return nil, err
		}
	}
	return d, nil
}
