package socket

import (
	"errors"
	"fmt"
)

// ErrBadHandle is returned when a [ReqSend] or [ReqClose] names a [Handle]
// that is not currently in the connection table (a listener's Handle
// included). It is a
// sentinel so callers can match it with [errors.Is]; the concrete value
// delivered in a Confirm is always [BadHandleError], which carries the
// offending handle.
var ErrBadHandle = errors.New("socket: unknown handle")

// ErrDropped is returned for a pending [ReqSend] whose connection went away
// before the write could be flushed. See [DroppedError].
var ErrDropped = errors.New("socket: connection dropped before send completed")

// ErrNotImplemented marks a reserved code path, e.g. a [ConnectionType] the
// reactor recognises but does not yet service.
var ErrNotImplemented = errors.New("socket: not implemented")

// BadHandleError wraps [ErrBadHandle] with the handle that was rejected.
type BadHandleError struct {
	Handle Handle
}

func (e *BadHandleError) Error() string {
	return fmt.Sprintf("socket: unknown handle %s", e.Handle)
}

func (e *BadHandleError) Unwrap() error {
	return ErrBadHandle
}

// DroppedError wraps [ErrDropped] with the handle whose connection dropped.
type DroppedError struct {
	Handle Handle
}

func (e *DroppedError) Error() string {
	return fmt.Sprintf("socket: handle %s dropped with send outstanding", e.Handle)
}

func (e *DroppedError) Unwrap() error {
	return ErrDropped
}

// IOError wraps an error surfaced by the underlying OS socket call (bind,
// accept, read, write, getpeername, ...). Kind names the operation that
// failed, for logging; Cause is always non-nil and is usually a
// *[os.SyscallError] or a [golang.org/x/sys/unix.Errno].
//
// errors.Is(ioErr, someSyscallErrno) works through Unwrap.
type IOError struct {
	Kind  string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("socket: %s: %v", e.Kind, e.Cause)
}

func (e *IOError) Unwrap() error {
	return e.Cause
}

// wrapIO builds an [IOError] for the given operation kind, or returns nil if
// cause is nil. Reactor code calls this at every syscall boundary instead of
// constructing IOError by hand, so Kind stays consistent.
func wrapIO(kind string, cause error) error {
	if cause == nil {
		return nil
	}
	return &IOError{Kind: kind, Cause: cause}
}
