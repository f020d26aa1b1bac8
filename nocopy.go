package zbuf

const (
	block1k = 1 * 1024
	block2k = 2 * 1024
	block4k = 4 * 1024
	block8k = 8 * 1024

	pageSize = block8k
)

// Reader is the read side of a Buffer as seen by a connection user.
type Reader interface {
	Read(p []byte) (n int, err error)
	ReadByte() (b byte, err error)
	ReadBytes(n int) (p []byte, err error)
	ReadString(n int) (s string, err error)
	ReadBuffer(n int, clone bool) (r *Buffer, err error)
	ReadInt32() (int32, error)
	ReadUint32() (uint32, error)
	ReadInt64() (int64, error)
	ReadUint64() (uint64, error)
	Remaining() (length int)
}

// Writer is the write side of a Buffer as seen by a connection user.
type Writer interface {
	Write(p []byte) (n int, err error)
	WriteByte(b byte) (err error)
	WriteString(s string) (n int, err error)
	WriteInt32(v int32) error
	WriteUint32(v uint32) error
	WriteInt64(v int64) error
	WriteUint64(v uint64) error
}

var (
	_ Reader = (*Buffer)(nil)
	_ Writer = (*Buffer)(nil)
)

// ReadBuffer consumes up to n bytes in the read direction and returns them as
// a new buffer. It is a partial read.
//
// With clone the result owns a copy. Without it the result is a borrowed
// zero-copy view of b's storage; while any view is live b refuses writes,
// fills, growth, compaction and release with ErrViewsOutstanding. Release the
// view to lift that.
func (b *Buffer) ReadBuffer(n int, clone bool) (*Buffer, error) {
	p, err := b.take(n, n, false)
	if err != nil {
		return nil, err
	}
	v := &Buffer{o: b.viewOptions()}
	if clone {
		v.st = allocStorage(len(p))
		copy(v.st.bytes, p)
	} else {
		v.st = borrowStorage(p[:len(p):len(p)])
		v.parent = b
		b.views++
	}
	v.limit = len(p)
	return v, nil
}

// Views returns the number of live zero-copy views into b.
func (b *Buffer) Views() int {
	return b.views
}

// viewOptions carries over the codec settings but none of the transport wiring.
func (b *Buffer) viewOptions() options {
	o := defaultOptions()
	o.readOrder = b.o.readOrder
	o.writeOrder = b.o.writeOrder
	o.byteOrder = b.o.byteOrder
	o.logger = b.o.logger
	return o
}
