package zbuf

import (
	"io"

	"github.com/pkg/errors"
)

// WriteHook runs right after size bytes were stored at offset.
type WriteHook func(size, offset int) error

// ReadHook runs right before a read of size bytes at offset is served.
type ReadHook func(size, offset int) error

// maxEmptyFills bounds consecutive (0, nil) results from a source.
const maxEmptyFills = 100

// Hooks run on the caller's goroutine and must not touch the buffer; the
// buffer itself appends what a source yields.

func (b *Buffer) afterWrite(size, offset int) error {
	if b.o.writeHook != nil {
		if err := b.o.writeHook(size, offset); err != nil {
			return transportError("write hook", size, offset, err)
		}
	}
	if b.o.sink == nil || size == 0 {
		return nil
	}
	if _, err := b.o.sink.Write(b.st.bytes[offset : offset+size]); err != nil {
		b.o.logger.Errorf("zbuf: flush %d bytes at %d failed: %v", size, offset, err)
		return transportError("flush", size, offset, err)
	}
	return nil
}

// beforeRead fires the read hook for size bytes at offset and then fills
// until at least need bytes lie at offset.
func (b *Buffer) beforeRead(size, offset, need int) error {
	if b.o.readHook != nil {
		if err := b.o.readHook(size, offset); err != nil {
			return transportError("read hook", size, offset, err)
		}
	}
	if b.o.source == nil || b.o.readOrder == Reverse {
		return nil
	}
	return b.fill(offset + need)
}

// recycle drops the consumed prefix of a sourced buffer when a fill for need
// bytes is coming and would otherwise grow the storage. The read buffer stays a
// window over the stream instead of a log of it. Views pin the prefix.
func (b *Buffer) recycle(need int) {
	if b.views > 0 || b.position == 0 {
		return
	}
	avail := b.limit - b.position
	if avail >= need {
		return
	}
	if avail <= 0 {
		b.position, b.limit = 0, 0
		return
	}
	if b.Capacity()-b.limit >= need-avail {
		return
	}
	n := copy(b.st.bytes, b.st.bytes[b.position:b.limit])
	b.position, b.limit = 0, n
}

// fill appends bytes from the source at limit until limit reaches want or
// the source is drained. A drained source is not an error here; the read
// that follows reports the shortage.
func (b *Buffer) fill(want int) error {
	var empty int
	for b.limit < want {
		if err := b.checkWritable(); err != nil {
			return err
		}
		chunk := want - b.limit
		if room := b.Capacity() - b.limit; room < chunk {
			if chunk < b.o.fillSize {
				chunk = b.o.fillSize
			}
			if err := b.expand(chunk - room); err != nil {
				return err
			}
		}
		n, err := b.o.source.Read(b.st.bytes[b.limit:])
		if n > 0 {
			b.limit += n
			empty = 0
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			b.o.logger.Errorf("zbuf: fill to %d failed: %v", want, err)
			return transportError("fill", chunk, b.limit, err)
		}
		if n == 0 {
			if empty++; empty >= maxEmptyFills {
				return transportError("fill", chunk, b.limit, io.ErrNoProgress)
			}
		}
	}
	return nil
}
