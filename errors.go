package zbuf

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrBufferOverflow means the buffer could not grow to hold the data.
	ErrBufferOverflow = errors.New("buffer overflow")
	// ErrEndOfBuffer means the cursor already sits on the boundary of the read direction.
	ErrEndOfBuffer = errors.New("end of buffer")
	// ErrBufferUnderflow means a strict read found fewer bytes than it needs.
	ErrBufferUnderflow = errors.New("buffer underflow")
	// ErrInvalidOrder means the cursor cannot move in the configured direction.
	ErrInvalidOrder = errors.New("invalid order")
	// ErrInvalidOwnership means the storage is not owned by the buffer that tried to grow or free it.
	ErrInvalidOwnership = errors.New("invalid ownership")
	// ErrViewsOutstanding means the buffer still has live zero-copy views.
	ErrViewsOutstanding = errors.New("zero-copy views outstanding")
	// ErrReleased means the buffer storage has already been released.
	ErrReleased = errors.New("buffer released")
	// ErrOutOfRange means an offset or length lies outside the buffer.
	ErrOutOfRange = errors.New("offset out of range")

	ErrConnClosed    = errors.New("connection closed")
	ErrConcurrentUse = errors.New("concurrent use of connection buffer")
	ErrUnsupported   = errors.New("unsupported")
)

// TransportError carries a failure raised by a hook, sink or source.
// It is never one of the buffer error kinds.
type TransportError struct {
	Op     string
	Offset int
	Size   int
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s(size=%d, offset=%d): %v", e.Op, e.Size, e.Offset, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, size, offset int, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Offset: offset, Size: size, Err: err}
}
