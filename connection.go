package zbuf

import (
	"context"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// Conn is a stream connection driven through a buffer pair: bytes written to
// Writer() are sent right away, reads on Reader() receive from the peer until
// the request can be served.
type Conn interface {
	net.Conn
	Reader() Reader
	Writer() Writer
	InputBuffer() *Buffer
	OutputBuffer() *Buffer
	// Release drops consumed input and recycles staged output.
	Release() error
	IsActive() bool
	// CloseWrite half-closes the connection: the peer reads EOF while this
	// side can still receive.
	CloseWrite() error
	LoadValue() any
	StoreValue(v any)
}

// ConnOption configures a Conn.
type ConnOption func(o *connOptions)

type connOptions struct {
	readSize   int
	writeSize  int
	bufferOpts []Option
	keepAlive  time.Duration
	noDelay    bool
	logger     Logger
}

func defaultConnOptions() connOptions {
	return connOptions{
		readSize:  pageSize,
		writeSize: block1k,
		noDelay:   true,
		logger:    DefaultLogger(),
	}
}

// WithBufferSize sets the initial capacities of the read and write buffers.
func WithBufferSize(read, write int) ConnOption {
	return func(o *connOptions) {
		if read >= 0 {
			o.readSize = read
		}
		if write >= 0 {
			o.writeSize = write
		}
	}
}

// WithBufferOptions applies opts to both buffers of the connection, e.g. a byte order.
func WithBufferOptions(opts ...Option) ConnOption {
	return func(o *connOptions) {
		o.bufferOpts = append(o.bufferOpts, opts...)
	}
}

func WithKeepAlive(d time.Duration) ConnOption {
	return func(o *connOptions) {
		o.keepAlive = d
	}
}

func WithNoDelay(noDelay bool) ConnOption {
	return func(o *connOptions) {
		o.noDelay = noDelay
	}
}

func WithConnLogger(l Logger) ConnOption {
	return func(o *connOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

type connection struct {
	guard

	conn    net.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	opts    connOptions
	rbuf    *Buffer
	wbuf    *Buffer
	value   atomic.Value
	onClose []func(c *connection)
}

// NewConn wraps c with a read buffer fed from c and a write buffer flushed to c.
// Any net.Conn works; descriptors from Dial and ConvertListener skip the
// runtime poller.
func NewConn(c net.Conn, opts ...ConnOption) Conn {
	return newConnection(context.Background(), c, opts...)
}

func newConnection(ctx context.Context, c net.Conn, opts ...ConnOption) *connection {
	o := defaultConnOptions()
	for _, opt := range opts {
		opt(&o)
	}
	conn := &connection{conn: c, opts: o}
	conn.ctx, conn.cancel = context.WithCancel(ctx)
	conn.init()
	return conn
}

// Dial connects to addr and returns a Conn over a blocking descriptor.
func Dial(network, address string, opts ...ConnOption) (Conn, error) {
	return DialContext(context.Background(), network, address, opts...)
}

func DialContext(ctx context.Context, network, address string, opts ...ConnOption) (Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s %s", network, address)
	}
	fdc, err := detachFD(nc)
	if err != nil {
		return nil, err
	}
	return newConnection(ctx, fdc, opts...), nil
}

type filer interface {
	File() (f *os.File, err error)
}

// detachFD moves the socket of nc onto a netFD and closes nc.
func detachFD(nc net.Conn) (*netFD, error) {
	defer nc.Close()
	fc, ok := nc.(filer)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported, "conn type %T", nc)
	}
	f, err := fc.File()
	if err != nil {
		return nil, errors.Wrap(err, "conn file")
	}
	defer f.Close()
	fd, err := syscall.Dup(int(f.Fd()))
	if err != nil {
		return nil, errors.Wrap(err, "dup conn fd")
	}
	syscall.CloseOnExec(fd)
	nfd, err := newNetFD(fd, nc.LocalAddr().Network(), nc.LocalAddr(), nc.RemoteAddr())
	if err != nil {
		syscall.Close(fd)
		return nil, err
	}
	return nfd, nil
}

func (c *connection) init() {
	c.rbuf = New(c.opts.readSize, append([]Option{
		WithSource(c.conn),
		WithFillSize(block1k / 2),
		WithLogger(c.opts.logger),
	}, c.opts.bufferOpts...)...)
	c.wbuf = New(c.opts.writeSize, append([]Option{
		WithSink(c.conn),
		WithLogger(c.opts.logger),
	}, c.opts.bufferOpts...)...)

	if fdc, ok := c.conn.(*netFD); ok {
		if c.opts.noDelay {
			if err := fdc.SetNoDelay(true); err != nil {
				c.opts.logger.Errorf("conn[%d] set nodelay failed: %v", fdc.fd, err)
			}
		}
		if c.opts.keepAlive > 0 {
			if err := fdc.SetKeepAlive(int(c.opts.keepAlive.Seconds())); err != nil {
				c.opts.logger.Errorf("conn[%d] set keepalive failed: %v", fdc.fd, err)
			}
		}
	}
}

func (c *connection) Reader() Reader {
	return c
}

func (c *connection) Writer() Writer {
	return c
}

// InputBuffer hands out the read buffer for direct use. The caller takes over
// the single-reader role.
func (c *connection) InputBuffer() *Buffer {
	return c.rbuf
}

// OutputBuffer hands out the write buffer for direct use. The caller takes
// over the single-writer role.
func (c *connection) OutputBuffer() *Buffer {
	return c.wbuf
}

func (c *connection) LoadValue() any {
	return c.value.Load()
}

func (c *connection) StoreValue(v any) {
	c.value.Store(v)
}

// IsActive implements Conn.
func (c *connection) IsActive() bool {
	return c.closedBy(none)
}

// ------------------------------------------ guarded buffer access ------------------------------------------

func (c *connection) input(fn func(b *Buffer) error) error {
	if err := c.acquire(reading); err != nil {
		return err
	}
	defer c.release(reading)
	return fn(c.rbuf)
}

func (c *connection) output(fn func(b *Buffer) error) error {
	if err := c.acquire(writing); err != nil {
		return err
	}
	defer c.release(writing)
	return fn(c.wbuf)
}

// ------------------------------------------ implement Reader ------------------------------------------

// Read behavior is the same as net.Conn: it blocks until at least one byte
// arrives and returns io.EOF after the peer closed.
func (c *connection) Read(p []byte) (n int, err error) {
	err = c.input(func(b *Buffer) error {
		n, err = b.Read(p)
		return err
	})
	return n, err
}

func (c *connection) ReadByte() (v byte, err error) {
	err = c.input(func(b *Buffer) error {
		v, err = b.ReadByte()
		return err
	})
	return v, err
}

func (c *connection) ReadBytes(n int) (p []byte, err error) {
	err = c.input(func(b *Buffer) error {
		p, err = b.ReadBytes(n)
		return err
	})
	return p, err
}

func (c *connection) ReadString(n int) (s string, err error) {
	err = c.input(func(b *Buffer) error {
		s, err = b.ReadString(n)
		return err
	})
	return s, err
}

func (c *connection) ReadBuffer(n int, clone bool) (r *Buffer, err error) {
	err = c.input(func(b *Buffer) error {
		r, err = b.ReadBuffer(n, clone)
		return err
	})
	return r, err
}

func (c *connection) ReadInt32() (v int32, err error) {
	err = c.input(func(b *Buffer) error {
		v, err = b.ReadInt32()
		return err
	})
	return v, err
}

func (c *connection) ReadUint32() (v uint32, err error) {
	err = c.input(func(b *Buffer) error {
		v, err = b.ReadUint32()
		return err
	})
	return v, err
}

func (c *connection) ReadInt64() (v int64, err error) {
	err = c.input(func(b *Buffer) error {
		v, err = b.ReadInt64()
		return err
	})
	return v, err
}

func (c *connection) ReadUint64() (v uint64, err error) {
	err = c.input(func(b *Buffer) error {
		v, err = b.ReadUint64()
		return err
	})
	return v, err
}

// Remaining returns the bytes already received and not yet consumed. It is 0
// while another goroutine holds the reader or after Close.
func (c *connection) Remaining() (n int) {
	_ = c.input(func(b *Buffer) error {
		n = b.Remaining()
		return nil
	})
	return n
}

// ------------------------------------------ implement Writer ------------------------------------------

// Write sends p before returning.
func (c *connection) Write(p []byte) (n int, err error) {
	err = c.output(func(b *Buffer) error {
		n, err = b.Write(p)
		return err
	})
	return n, err
}

func (c *connection) WriteByte(v byte) error {
	return c.output(func(b *Buffer) error {
		return b.WriteByte(v)
	})
}

func (c *connection) WriteString(s string) (n int, err error) {
	err = c.output(func(b *Buffer) error {
		n, err = b.WriteString(s)
		return err
	})
	return n, err
}

func (c *connection) WriteInt32(v int32) error {
	return c.output(func(b *Buffer) error {
		return b.WriteInt32(v)
	})
}

func (c *connection) WriteUint32(v uint32) error {
	return c.output(func(b *Buffer) error {
		return b.WriteUint32(v)
	})
}

func (c *connection) WriteInt64(v int64) error {
	return c.output(func(b *Buffer) error {
		return b.WriteInt64(v)
	})
}

func (c *connection) WriteUint64(v uint64) error {
	return c.output(func(b *Buffer) error {
		return b.WriteUint64(v)
	})
}

// Release implements Conn. Consumed input is compacted away and the write
// buffer, whose bytes have all been sent, starts over.
func (c *connection) Release() error {
	if err := c.input(func(b *Buffer) error {
		return b.Compact()
	}); err != nil {
		return err
	}
	return c.output(func(b *Buffer) error {
		return b.Reset()
	})
}

// ------------------------------------------ implement net.Conn ------------------------------------------

// Close implements net.Conn. It is safe to call more than once.
func (c *connection) Close() error {
	if !c.markClosed(user) {
		return nil
	}
	return c.shutdown()
}

type writeCloser interface {
	CloseWrite() error
}

// CloseWrite implements Conn. It fails with ErrConcurrentUse while another
// goroutine writes and with ErrUnsupported when the conn cannot half-close.
func (c *connection) CloseWrite() error {
	wc, ok := c.conn.(writeCloser)
	if !ok {
		return errors.Wrapf(ErrUnsupported, "close write on %T", c.conn)
	}
	return c.output(func(*Buffer) error {
		return wc.CloseWrite()
	})
}

// closeByPeer records that the peer went away first.
func (c *connection) closeByPeer() error {
	if !c.markClosed(peer) {
		return nil
	}
	return c.shutdown()
}

func (c *connection) shutdown() error {
	c.cancel()
	// closing the socket unblocks a reader or writer parked in a hook
	err := c.conn.Close()
	if err != nil {
		c.opts.logger.Errorf("conn %s close: %v", c.RemoteAddr(), err)
	}
	c.park(reading)
	c.park(writing)
	for i := len(c.onClose) - 1; i >= 0; i-- {
		c.onClose[i](c)
	}
	c.closeBuffer()
	return err
}

// closeBuffer returns owned storage. Buffers with live views stay with the user.
func (c *connection) closeBuffer() {
	for _, b := range []*Buffer{c.rbuf, c.wbuf} {
		if err := b.Release(); err != nil && !errors.Is(err, ErrReleased) {
			c.opts.logger.Errorf("conn %s release buffer: %v", c.RemoteAddr(), err)
		}
	}
}

func (c *connection) addCloseCallback(cb func(c *connection)) {
	c.onClose = append(c.onClose, cb)
}

func (c *connection) isIdle() bool {
	return c.idle(reading) && c.idle(writing)
}

func (c *connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

func (c *connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *connection) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

func (c *connection) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *connection) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}
