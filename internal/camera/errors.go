package camera

import (
	"errors"
	"fmt"
)

// Errors returned by Handle operations. Callers classify with errors.Is.
var (
	// ErrTransportInvalid means the transport was already consumed or revoked.
	ErrTransportInvalid = errors.New("transport invalid")
	// ErrOpen wraps a native open failure.
	ErrOpen = errors.New("open failed")
	// ErrNoCompatibleFormat means no encoding family produced a usable size.
	ErrNoCompatibleFormat = errors.New("no compatible format")
	// ErrFormatRejected is returned by a Device when Configure refuses a
	// format as an invalid argument. It is the only error that moves
	// negotiation on to the next encoding family.
	ErrFormatRejected = errors.New("format rejected")
	// ErrNotConfigured means Start was called before a format was negotiated.
	ErrNotConfigured = errors.New("not configured")
	// ErrNotBound means Start was called without a render target.
	ErrNotBound = errors.New("not bound")
	// ErrAlreadyActive means the resource is already streaming.
	ErrAlreadyActive = errors.New("already active")
	// ErrDisposed means the handle was destroyed.
	ErrDisposed = errors.New("disposed")
)

// OpError records the operation and device that produced an error.
type OpError struct {
	Op     string
	Device DeviceID
	Err    error
}

func (e *OpError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("camera %s %s: %v", e.Op, e.Device, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsContractViolation reports whether err signals a misordered call
// rather than a device or format problem.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrNotBound) ||
		errors.Is(err, ErrAlreadyActive) ||
		errors.Is(err, ErrDisposed) ||
		errors.Is(err, ErrNotConfigured)
}
