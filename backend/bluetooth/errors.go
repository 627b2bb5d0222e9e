package bluetooth

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// ErrTrackerStopped is returned by tracker operations once its loop has ended.
var ErrTrackerStopped = errors.New("bluetooth: tracker stopped")

// BusUnavailableError means the system bus or the BlueZ object tree could not
// be reached.
type BusUnavailableError struct {
	Err error
}

func (e *BusUnavailableError) Error() string {
	return fmt.Sprintf("bluetooth: system bus unavailable: %v", e.Err)
}

func (e *BusUnavailableError) Unwrap() error { return e.Err }

// ResourceUnavailableError means a device, player or transport could not be
// found or proxied.
type ResourceUnavailableError struct {
	Kind ResourceKind
	Path dbus.ObjectPath
	Err  error
}

func (e *ResourceUnavailableError) Error() string {
	msg := fmt.Sprintf("bluetooth: %s unavailable", e.Kind)
	if e.Path != "" {
		msg += " at " + string(e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResourceUnavailableError) Unwrap() error { return e.Err }

type RemoteCallFailedError struct {
	Method string
	Path   dbus.ObjectPath
	Err    error
}

func (e *RemoteCallFailedError) Error() string {
	return fmt.Sprintf("bluetooth: %s on %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *RemoteCallFailedError) Unwrap() error { return e.Err }

// MalformedPayloadError is logged when a signal body has an unexpected shape.
type MalformedPayloadError struct {
	Kind ResourceKind
	Err  error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("bluetooth: malformed %s payload: %v", e.Kind, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

type NoActivePlayerError struct{}

func (e *NoActivePlayerError) Error() string {
	return "bluetooth: no active player"
}
