// FILE: lixenwraith/logsetup/errors.go
package logsetup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports bad registration or configuration input
	ErrInvalidArgument = errors.New("logsetup: invalid argument")
	// ErrDelivery is matched by every *DeliveryError
	ErrDelivery = errors.New("logsetup: delivery failed")
	// ErrBridgeInternal reports a fault of the logging pipeline while handling a panic
	ErrBridgeInternal = errors.New("logsetup: bridge internal error")
	// ErrShutdown is returned when registering on a dispatcher that was shut down
	ErrShutdown = errors.New("logsetup: dispatcher shut down")
	// ErrInterrupt is the cancellation value; a panic carrying it is never logged
	ErrInterrupt = errors.New("logsetup: interrupted")
)

// DeliveryError wraps a failure of a single sink
type DeliveryError struct {
	Sink string
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("logsetup: delivery to %s failed: %v", e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDelivery) hold for any DeliveryError
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}

// ExitRequest is the panic value of a deliberate termination, see Exit
type ExitRequest struct {
	Code int
}

func (e *ExitRequest) Error() string {
	return fmt.Sprintf("logsetup: exit requested with code %d", e.Code)
}

// Exit unwinds the calling goroutine as a deliberate termination.
// Under main capture the process exits with code after sinks are closed,
// in a worker goroutine only that goroutine ends. Nothing is logged.
func Exit(code int) {
	panic(&ExitRequest{Code: code})
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "logsetup: ") {
		format = "logsetup: " + format
	}
	return fmt.Errorf(format, args...)
}

// invalidArgf builds an error matching ErrInvalidArgument
func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
