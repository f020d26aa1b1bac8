package zbuf

import (
	"io"

	"github.com/pkg/errors"
)

// write stores p in the write direction, moves the cursor and fires the
// write hook. Forward writes past capacity grow the storage once.
func (b *Buffer) write(p []byte) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	n := len(p)
	var off int
	if b.o.writeOrder == Reverse {
		if b.position < n {
			return errors.Wrapf(ErrInvalidOrder, "reverse write of %d bytes at position %d", n, b.position)
		}
		off = b.position - n
		copy(b.st.bytes[off:], p)
		b.position = off
	} else {
		off = b.position
		if err := b.ensure(off, n); err != nil {
			return err
		}
		copy(b.st.bytes[off:], p)
		b.position = off + n
	}
	if end := off + n; end > b.limit {
		b.limit = end
	}
	return b.afterWrite(n, off)
}

// writeAt stores p relative to off in the given direction without moving the cursor.
func (b *Buffer) writeAt(off int, p []byte, order Order) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if off < 0 {
		return errors.Wrapf(ErrOutOfRange, "offset %d", off)
	}
	n := len(p)
	if order == Reverse {
		if off > b.Capacity() {
			return errors.Wrapf(ErrOutOfRange, "reverse write at offset %d beyond capacity %d", off, b.Capacity())
		}
		if off < n {
			return errors.Wrapf(ErrInvalidOrder, "reverse write of %d bytes at offset %d", n, off)
		}
		off -= n
	} else if err := b.ensure(off, n); err != nil {
		return err
	}
	copy(b.st.bytes[off:], p)
	if end := off + n; end > b.limit {
		b.limit = end
	}
	return b.afterWrite(n, off)
}

// take consumes up to n bytes in the read direction and returns them as a
// slice of the storage. A source is asked for bytes until need of them are
// buffered. Strict takes fail instead of returning fewer bytes.
// On error the cursor is left where it was.
func (b *Buffer) take(n, need int, strict bool) ([]byte, error) {
	if err := b.checkLive(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.Wrapf(ErrOutOfRange, "read of %d bytes", n)
	}
	if n == 0 {
		return b.st.bytes[b.position:b.position], nil
	}
	if b.o.readOrder == Reverse {
		return b.takeReverse(n, strict)
	}
	if b.o.source != nil {
		b.recycle(need)
	}
	if err := b.beforeRead(n, b.position, need); err != nil {
		return nil, err
	}
	avail := b.limit - b.position
	if avail <= 0 {
		return nil, ErrEndOfBuffer
	}
	if avail < n {
		if strict {
			return nil, errors.Wrapf(ErrBufferUnderflow, "need %d bytes, have %d", n, avail)
		}
		n = avail
	}
	off := b.position
	b.position += n
	return b.st.bytes[off:b.position], nil
}

func (b *Buffer) takeReverse(n int, strict bool) ([]byte, error) {
	if b.position == 0 {
		return nil, errors.Wrap(ErrInvalidOrder, "reverse read at position 0")
	}
	if b.position > b.limit {
		return nil, errors.Wrapf(ErrOutOfRange, "reverse read at position %d beyond limit %d", b.position, b.limit)
	}
	off := b.position - n
	if off < 0 {
		if strict {
			return nil, errors.Wrapf(ErrBufferUnderflow, "need %d bytes, have %d", n, b.position)
		}
		off = 0
	}
	if err := b.beforeRead(b.position-off, off, 0); err != nil {
		return nil, err
	}
	p := b.st.bytes[off:b.position]
	b.position = off
	return p, nil
}

// peekAt returns exactly n bytes relative to off in the read direction
// without moving the cursor.
func (b *Buffer) peekAt(off, n int) ([]byte, error) {
	if err := b.checkLive(); err != nil {
		return nil, err
	}
	if off < 0 || n < 0 {
		return nil, errors.Wrapf(ErrOutOfRange, "read of %d bytes at offset %d", n, off)
	}
	if b.o.readOrder == Reverse {
		if off > b.limit {
			return nil, errors.Wrapf(ErrOutOfRange, "offset %d beyond limit %d", off, b.limit)
		}
		if off == 0 && n > 0 {
			return nil, errors.Wrap(ErrInvalidOrder, "reverse read at offset 0")
		}
		if off < n {
			return nil, errors.Wrapf(ErrBufferUnderflow, "need %d bytes, have %d", n, off)
		}
		if err := b.beforeRead(n, off-n, n); err != nil {
			return nil, err
		}
		return b.st.bytes[off-n : off], nil
	}
	if err := b.beforeRead(n, off, n); err != nil {
		return nil, err
	}
	if off >= b.limit && n > 0 {
		return nil, ErrEndOfBuffer
	}
	if b.limit-off < n {
		return nil, errors.Wrapf(ErrBufferUnderflow, "need %d bytes at %d, have %d", n, off, b.limit-off)
	}
	return b.st.bytes[off : off+n], nil
}

// Write implements io.Writer, storing p in the write direction.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if err = b.write(p); err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return len(p), err
		}
		return 0, err
	}
	return len(p), nil
}

// WriteString stores the bytes of s in the write direction.
func (b *Buffer) WriteString(s string) (n int, err error) {
	return b.Write([]byte(s))
}

// WriteByte implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	return b.write([]byte{c})
}

// WriteAt implements io.WriterAt. It writes [off, off+len(p)) regardless of
// the write order and does not move the cursor.
func (b *Buffer) WriteAt(p []byte, off int64) (n int, err error) {
	if err = b.writeAt(int(off), p, Forward); err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return len(p), err
		}
		return 0, err
	}
	return len(p), nil
}

// Read implements io.Reader. It is a partial read: it returns what is
// available up to len(p), asking a source for more only when nothing is
// buffered, and io.EOF once no bytes are left.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	src, err := b.take(len(p), 1, false)
	if err != nil {
		if errors.Is(err, ErrEndOfBuffer) {
			return 0, io.EOF
		}
		return 0, err
	}
	return copy(p, src), nil
}

// ReadAt implements io.ReaderAt over [off, off+len(p)) regardless of the read
// order. It does not move the cursor.
func (b *Buffer) ReadAt(p []byte, off int64) (n int, err error) {
	if err = b.checkLive(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, errors.Wrapf(ErrOutOfRange, "offset %d", off)
	}
	o := int(off)
	if err = b.beforeRead(len(p), o, len(p)); err != nil {
		return 0, err
	}
	if o >= b.limit {
		return 0, io.EOF
	}
	n = copy(p, b.st.bytes[o:b.limit])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadByte implements io.ByteReader.
func (b *Buffer) ReadByte() (byte, error) {
	p, err := b.take(1, 1, true)
	if err != nil {
		if errors.Is(err, ErrEndOfBuffer) {
			return 0, io.EOF
		}
		return 0, err
	}
	return p[0], nil
}

// ReadBytes returns a copy of up to n bytes in the read direction. It is a
// partial read and fails with ErrEndOfBuffer only when nothing is left.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	p, err := b.take(n, n, false)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// ReadString is ReadBytes returning a string.
func (b *Buffer) ReadString(n int) (string, error) {
	p, err := b.take(n, n, false)
	if err != nil {
		return "", err
	}
	return string(p), nil
}
