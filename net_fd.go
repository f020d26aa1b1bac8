package zbuf

import (
	"io"
	"net"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// FDConn is a net.Conn backed by a raw socket descriptor.
type FDConn interface {
	net.Conn
	Fd() int
}

// netFD is a blocking socket. Reads and writes park the calling goroutine's
// thread in the kernel, which is what the buffer hooks expect.
type netFD struct {
	// file descriptor
	fd int
	// closed marks whether fd has expired
	closed     uint32
	network    string // tcp tcp4 tcp6, unix
	localAddr  net.Addr
	remoteAddr net.Addr
}

func newNetFD(fd int, network string, local, remote net.Addr) (*netFD, error) {
	if err := syscall.SetNonblock(fd, false); err != nil {
		return nil, errors.Wrapf(err, "netFD[%d] set blocking", fd)
	}
	return &netFD{fd: fd, network: network, localAddr: local, remoteAddr: remote}, nil
}

func (c *netFD) Fd() (fd int) {
	return c.fd
}

// Read implements FDConn. A zero-byte read on a stream socket is io.EOF.
func (c *netFD) Read(b []byte) (n int, err error) {
	if len(b) == 0 {
		return 0, nil
	}
	for {
		if atomic.LoadUint32(&c.closed) != 0 {
			return 0, ErrConnClosed
		}
		n, err = syscall.Read(c.fd, b)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return 0, errors.Wrapf(err, "read fd=%d", c.fd)
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write implements FDConn. It loops until all of b is sent.
func (c *netFD) Write(b []byte) (n int, err error) {
	var bs = [][]byte{nil}
	var ivs = make([]syscall.Iovec, 1)
	for n < len(b) {
		if atomic.LoadUint32(&c.closed) != 0 {
			return n, ErrConnClosed
		}
		bs[0] = b[n:]
		var m int
		m, err = sendmsg(c.fd, bs, ivs)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return n, errors.Wrapf(err, "sendmsg fd=%d", c.fd)
		}
		n += m
	}
	return n, nil
}

// Close will be executed only once.
func (c *netFD) Close() (err error) {
	if atomic.AddUint32(&c.closed, 1) != 1 {
		return nil
	}
	if c.fd > 0 {
		// wake a reader parked in recv before the descriptor goes away
		_ = syscall.Shutdown(c.fd, syscall.SHUT_RDWR)
		if err = syscall.Close(c.fd); err != nil {
			return errors.Wrapf(err, "close fd=%d", c.fd)
		}
	}
	return nil
}

// CloseWrite sends FIN to the peer and keeps the descriptor open for reading.
func (c *netFD) CloseWrite() error {
	if atomic.LoadUint32(&c.closed) != 0 {
		return ErrConnClosed
	}
	if err := syscall.Shutdown(c.fd, syscall.SHUT_WR); err != nil {
		return errors.Wrapf(err, "shutdown write fd=%d", c.fd)
	}
	return nil
}

// LocalAddr implements FDConn.
func (c *netFD) LocalAddr() (addr net.Addr) {
	return c.localAddr
}

// RemoteAddr implements FDConn.
func (c *netFD) RemoteAddr() (addr net.Addr) {
	return c.remoteAddr
}

// SetKeepAlive implements FDConn.
// TODO: only tcp conn is ok.
func (c *netFD) SetKeepAlive(second int) error {
	if !strings.HasPrefix(c.network, "tcp") {
		return nil
	}
	if second > 0 {
		return SetKeepAlive(c.fd, second)
	}
	return nil
}

func (c *netFD) SetNoDelay(noDelay bool) error {
	if !strings.HasPrefix(c.network, "tcp") {
		return nil
	}
	return setTCPNoDelay(c.fd, noDelay)
}

// SetDeadline implements FDConn. Cancelling a blocking hook belongs to the caller.
func (c *netFD) SetDeadline(t time.Time) error {
	return errors.Wrap(ErrUnsupported, "SetDeadline")
}

// SetReadDeadline implements FDConn.
func (c *netFD) SetReadDeadline(t time.Time) error {
	return errors.Wrap(ErrUnsupported, "SetReadDeadline")
}

// SetWriteDeadline implements FDConn.
func (c *netFD) SetWriteDeadline(t time.Time) error {
	return errors.Wrap(ErrUnsupported, "SetWriteDeadline")
}
