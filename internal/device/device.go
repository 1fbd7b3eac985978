package device

import (
	"errors"
	"fmt"
	"strings"
)

// FailureKind classifies why a connection attempt ended.
type FailureKind string

const (
	// ConnectFailed: adapter unusable, peripheral unresolvable or discovery failed.
	ConnectFailed FailureKind = "connect_failed"
	// Disconnected: the link dropped while the session was polling.
	Disconnected FailureKind = "disconnected"
	// DataTimeout: no channel update arrived within the liveness window.
	DataTimeout FailureKind = "data_timeout"
	// Aborted: a cancellation check fired.
	Aborted FailureKind = "aborted"
)

// SessionError is the error type for every failure a session can report.
type SessionError struct {
	Kind FailureKind
	Msg  string
	Err  error
}

// Error implements the error interface
func (e *SessionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := string(e.Kind)
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is allows errors.Is to compare SessionError values by Kind
func (e *SessionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*SessionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func (e *SessionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Predefined sentinel errors, one per failure kind
var (
	ErrConnectFailed = &SessionError{Kind: ConnectFailed}
	ErrDisconnected  = &SessionError{Kind: Disconnected}
	ErrDataTimeout   = &SessionError{Kind: DataTimeout}
	ErrAborted       = &SessionError{Kind: Aborted}
)

// Platform errors, usually wrapped in a ConnectFailed SessionError
var (
	ErrBluetoothOff = errors.New("bluetooth is powered off")
	ErrNotConnected = errors.New("device not connected")
	ErrTimeout      = errors.New("timeout")
	ErrUnsupported  = errors.New("unsupported")
)

func NewConnectFailed(msg string, cause error) error {
	return &SessionError{Kind: ConnectFailed, Msg: msg, Err: cause}
}

func NewDisconnected(msg string) error {
	return &SessionError{Kind: Disconnected, Msg: msg}
}

func NewDataTimeout(msg string) error {
	return &SessionError{Kind: DataTimeout, Msg: msg}
}

func NewAborted(msg string, cause error) error {
	return &SessionError{Kind: Aborted, Msg: msg, Err: cause}
}

// KindOf returns the failure kind carried by err, or "" for foreign errors.
func KindOf(err error) FailureKind {
	var serr *SessionError
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return ""
}

// NotFoundError reports a service or characteristic missing from the
// discovered profile.
type NotFoundError struct {
	Resource string   // "service", "characteristic"
	UUIDs    []string // [service] or [service, characteristic]
}

func (e *NotFoundError) Error() string {
	switch len(e.UUIDs) {
	case 0:
		return fmt.Sprintf("%s not found", e.Resource)
	case 1:
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	default:
		return fmt.Sprintf("%s %q not found in service %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
	}
}

// containsIgnoreCase checks substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// IsBluetoothOff reports whether err (or its message) says the adapter is off.
func IsBluetoothOff(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBluetoothOff) {
		return true
	}
	return containsIgnoreCase(err.Error(), "powered off") || containsIgnoreCase(err.Error(), "poweredoff")
}
