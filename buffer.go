// Package zbuf provides a growable, cursor-addressed byte buffer with typed,
// endianness-aware reads and writes, and a socket bridge that streams bytes
// through a pair of such buffers.
package zbuf

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Order is the direction the cursor moves on access.
type Order uint8

const (
	// Forward accesses [position, position+n) and advances the cursor.
	Forward Order = iota
	// Reverse accesses [position-n, position) and retreats the cursor.
	Reverse
)

func (o Order) String() string {
	if o == Reverse {
		return "reverse"
	}
	return "forward"
}

// Buffer is a contiguous byte region with a cursor (position), a high-water
// mark of valid bytes (limit) and the allocated size (capacity).
//
// A Buffer is not safe for concurrent use. Slices obtained from it are valid
// until the next growth of its storage.
type Buffer struct {
	st       storage
	limit    int
	position int
	o        options

	parent   *Buffer // set on zero-copy views
	views    int     // live zero-copy views into st
	released bool
}

// New allocates a buffer of exactly capacity zeroed, owned bytes.
func New(capacity int, opts ...Option) *Buffer {
	if capacity < 0 {
		panic("zbuf: negative capacity")
	}
	b := &Buffer{o: defaultOptions()}
	b.apply(opts)
	b.st = allocStorage(capacity)
	return b
}

// Wrap builds a buffer over p whose limit is len(p). With clone the bytes are
// copied into owned storage; without it the buffer borrows p, writes land in
// p, and the caller must keep p alive and unmoved while the buffer is in use.
func Wrap(p []byte, clone bool, opts ...Option) *Buffer {
	b := &Buffer{o: defaultOptions()}
	b.apply(opts)
	if clone {
		b.st = allocStorage(len(p))
		copy(b.st.bytes, p)
	} else {
		b.st = borrowStorage(p[:len(p):len(p)])
	}
	b.limit = len(p)
	return b
}

func (b *Buffer) apply(opts []Option) {
	for _, opt := range opts {
		opt(&b.o)
	}
}

func (b *Buffer) Capacity() int {
	return len(b.st.bytes)
}

func (b *Buffer) Limit() int {
	return b.limit
}

func (b *Buffer) Position() int {
	return b.position
}

func (b *Buffer) Ownership() Ownership {
	return b.st.own
}

func (b *Buffer) ReadOrder() Order {
	return b.o.readOrder
}

func (b *Buffer) SetReadOrder(order Order) {
	b.o.readOrder = order
}

func (b *Buffer) WriteOrder() Order {
	return b.o.writeOrder
}

func (b *Buffer) SetWriteOrder(order Order) {
	b.o.writeOrder = order
}

func (b *Buffer) ByteOrder() binary.ByteOrder {
	return b.o.byteOrder
}

func (b *Buffer) SetByteOrder(order binary.ByteOrder) {
	if order != nil {
		b.o.byteOrder = order
	}
}

// Remaining returns the number of valid bytes ahead of the cursor in the read direction.
func (b *Buffer) Remaining() int {
	if b.o.readOrder == Reverse {
		if b.position > b.limit {
			return 0
		}
		return b.position
	}
	if b.position >= b.limit {
		return 0
	}
	return b.limit - b.position
}

// SetPosition moves the cursor; p must lie within [0, capacity].
func (b *Buffer) SetPosition(p int) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if p < 0 || p > b.Capacity() {
		return errors.Wrapf(ErrOutOfRange, "position %d, capacity %d", p, b.Capacity())
	}
	b.position = p
	return nil
}

// SetLimit moves the high-water mark; n must lie within [0, capacity].
func (b *Buffer) SetLimit(n int) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if n < 0 || n > b.Capacity() {
		return errors.Wrapf(ErrOutOfRange, "limit %d, capacity %d", n, b.Capacity())
	}
	b.limit = n
	return nil
}

// Flip ends a write phase: the current limit bounds the following reads and
// the cursor returns to 0.
func (b *Buffer) Flip() {
	b.position = 0
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	b.position, b.limit = 0, 0
	return nil
}

// Compact drops the bytes before the cursor, moving [position, limit) to the
// front. Capacity is unchanged.
func (b *Buffer) Compact() error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if b.position >= b.limit {
		b.position, b.limit = 0, 0
		return nil
	}
	n := copy(b.st.bytes, b.st.bytes[b.position:b.limit])
	b.position, b.limit = 0, n
	return nil
}

// Bytes returns the valid bytes [0, limit). The slice aliases the storage.
func (b *Buffer) Bytes() []byte {
	return b.st.bytes[:b.limit]
}

// Release gives the storage back. Owned memory is returned to the allocator,
// borrowed memory is only dereferenced. A view releases its hold on the parent.
func (b *Buffer) Release() error {
	if b.released {
		return ErrReleased
	}
	if b.views > 0 {
		b.o.logger.Errorf("zbuf: release with %d live views", b.views)
		return errors.Wrapf(ErrViewsOutstanding, "release with %d views", b.views)
	}
	if b.st.own == Owned {
		if err := b.st.free(); err != nil {
			return err
		}
	} else {
		b.st.detach()
	}
	if b.parent != nil {
		b.parent.views--
		b.parent = nil
	}
	b.released = true
	b.position, b.limit = 0, 0
	return nil
}

func (b *Buffer) checkLive() error {
	if b.released {
		return ErrReleased
	}
	return nil
}

// checkWritable guards every mutation of the stored bytes or the storage itself.
func (b *Buffer) checkWritable() error {
	if b.released {
		return ErrReleased
	}
	if b.views > 0 {
		return errors.Wrapf(ErrViewsOutstanding, "%d live views", b.views)
	}
	return nil
}
