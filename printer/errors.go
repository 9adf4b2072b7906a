package printer

import (
	"errors"
	"fmt"
)

var (
	// ErrPortOpen: the link could not be opened.
	ErrPortOpen = errors.New("printer: cannot open port")

	// ErrDiscovery: nothing, or not an EZ30, answered the discovery probe.
	ErrDiscovery = errors.New("printer: no EZ30 printer answered")

	// ErrProtocolAck: unexpected byte where the printer should acknowledge a command.
	ErrProtocolAck = errors.New("printer: command not acknowledged")

	// ErrProtocolTimeout: no answer within the command timeout.
	ErrProtocolTimeout = errors.New("printer: timed out waiting for printer")

	// ErrDataDropped: the printer reported lost bytes. The job cannot be
	// resumed, the printer has to be initialized again.
	ErrDataDropped = errors.New("printer: printer dropped data")

	// ErrLinkIO: reading or writing the link failed.
	ErrLinkIO = errors.New("printer: link i/o error")

	ErrNotReady     = errors.New("printer: not initialized")
	ErrHeadBackward = errors.New("printer: head cannot move back in feed direction")
	ErrPayloadSize  = errors.New("printer: payload size out of range")
	ErrJobTooWide   = errors.New("printer: job wider than the label")
)

// ProtocolError describes a failed exchange with the printer. Kind is one of
// the sentinel errors above; errors.Is works on both Kind and Err.
type ProtocolError struct {
	Op   string // command or step that failed
	Kind error

	// Got is the offending byte when HasGot is set.
	Got    byte
	HasGot bool

	Err error
}

func (e *ProtocolError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Op)
	}
	if e.HasGot {
		msg = fmt.Sprintf("%s: got 0x%02x", msg, e.Got)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProtocolError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func protoErr(op string, kind error) *ProtocolError {
	return &ProtocolError{Op: op, Kind: kind}
}

func protoErrGot(op string, kind error, got byte) *ProtocolError {
	return &ProtocolError{Op: op, Kind: kind, Got: got, HasGot: true}
}

func ioErr(op string, err error) *ProtocolError {
	return &ProtocolError{Op: op, Kind: ErrLinkIO, Err: err}
}
