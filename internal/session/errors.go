package session

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is() against these to pick an HTTP status or retry policy.
var (
	// ErrInput is returned when a required field is missing or malformed.
	// The Transport is never contacted.
	ErrInput = errors.New("session: invalid input")

	// ErrNotConnected is returned when an operation needs an active session.
	ErrNotConnected = errors.New("session: not connected")

	// ErrConnection is returned when the broker refuses the connection or the
	// connect attempt times out.
	ErrConnection = errors.New("session: connection failed")

	// ErrTransport is returned when the Transport rejects an attempted operation.
	ErrTransport = errors.New("session: transport error")
)

// Caller-visible messages.
const (
	msgBrokerRequired  = "Broker address required"
	msgTopicRequired   = "Topic required"
	msgNotConnected    = "MQTT client not connected"
	msgUnableToConnect = "Unable to connect"
)

// Error is the structured failure returned by Session operations.
//
// Message is safe to show to end users. Kind is one of the package sentinels
// and Code carries the Transport result code where one exists.
type Error struct {
	Kind    error
	Op      string
	Message string
	Code    byte
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func inputError(op, message string) *Error {
	return &Error{Kind: ErrInput, Op: op, Message: message}
}

func notConnectedError(op string) *Error {
	return &Error{Kind: ErrNotConnected, Op: op, Message: msgNotConnected}
}

func connectionError(message string, code byte, cause error) *Error {
	return &Error{Kind: ErrConnection, Op: "connect", Message: message, Code: code, Err: cause}
}

func transportError(op string, code byte, cause error) *Error {
	var msg string
	switch {
	case cause != nil && code != CodeAccepted:
		msg = fmt.Sprintf("%s failed: %v (code %d)", op, cause, code)
	case cause != nil:
		msg = fmt.Sprintf("%s failed: %v", op, cause)
	default:
		msg = fmt.Sprintf("%s failed: %s (code %d)", op, Describe(code), code)
	}
	return &Error{Kind: ErrTransport, Op: op, Message: msg, Code: code, Err: cause}
}
