// FILE: lixenwraith/logsetup/compat/builder.go
package compat

import (
	"fmt"

	"github.com/lixenwraith/logsetup"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
)

// Builder creates logger adapters for gnet, fasthttp, zap and zerolog.
// It can use an existing *logsetup.Logger or create a dispatcher from a
// *logsetup.Config; with neither, adapters follow the default dispatcher.
type Builder struct {
	logger *logsetup.Logger
	cfg    *logsetup.Config
	name   string
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{name: "compat"}
}

// WithLogger specifies an existing logger to use for the adapters.
// If this is set WithConfig is ignored.
func (b *Builder) WithLogger(l *logsetup.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("logsetup/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides a configuration for a dedicated dispatcher.
// Used only if an existing logger is not provided via WithLogger.
func (b *Builder) WithConfig(cfg *logsetup.Config) *Builder {
	b.cfg = cfg
	return b
}

// WithName sets the logger name used when the builder creates the logger
func (b *Builder) WithName(name string) *Builder {
	if name == "" {
		b.err = fmt.Errorf("logsetup/compat: logger name cannot be empty")
		return b
	}
	b.name = name
	return b
}

// getLogger resolves the logger to be used, creating one if necessary
func (b *Builder) getLogger() (*logsetup.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.logger != nil {
		return b.logger, nil
	}

	if b.cfg == nil {
		b.logger = logsetup.GetLogger(b.name)
		return b.logger, nil
	}

	d, err := logsetup.NewDispatcherFromConfig(b.cfg)
	if err != nil {
		return nil, err
	}

	// Cache the logger for subsequent builds with this builder
	b.logger = d.Logger(b.name)
	return b.logger, nil
}

// BuildGnet creates a gnet adapter, pass it with gnet.WithLogger
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter for fasthttp.Server.Logger
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// BuildZap creates a zap logger writing through a ZapCore
func (b *Builder) BuildZap(opts ...zap.Option) (*zap.Logger, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l, opts...), nil
}

// BuildZerolog creates a zerolog logger writing through a ZerologWriter
func (b *Builder) BuildZerolog() (zerolog.Logger, error) {
	l, err := b.getLogger()
	if err != nil {
		return zerolog.Nop(), err
	}
	return NewZerologLogger(l), nil
}

// GetLogger returns the underlying *logsetup.Logger, creating it if needed
func (b *Builder) GetLogger() (*logsetup.Logger, error) {
	return b.getLogger()
}

// --- Example Usage ---
//
//	d, err := logsetup.NewBuilder().Level(logsetup.LevelDebug).Build()
//	if err != nil { /* handle error */ }
//	builder := compat.NewBuilder().WithLogger(d.Logger("net"))
//
//	gnetLogger, _ := builder.BuildGnet()
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//
//	zl, _ := builder.BuildZap()
//	zl.Info("listening", zap.Int("port", 8080))
