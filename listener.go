package zbuf

import (
	"net"
	"os"
	"sync/atomic"
	"syscall"

	"github.com/pkg/errors"
)

type Listener interface {
	net.Listener
	Fd() int
}

// ConvertListener takes over the socket of a *net.TCPListener or
// *net.UnixListener. Accept blocks until a peer connects or the listener closes.
func ConvertListener(netListener net.Listener) (Listener, error) {
	if tmp, ok := netListener.(Listener); ok {
		return tmp, nil
	}
	l := new(listener)
	l.netListener = netListener
	l.addr = netListener.Addr()
	var err = l.parseFD()
	if err != nil {
		return nil, err
	}
	return l, syscall.SetNonblock(l.fd, false)
}

type listener struct {
	fd          int
	closed      uint32
	addr        net.Addr
	netListener net.Listener
	file        *os.File
}

func (l *listener) Accept() (net.Conn, error) {
	for {
		var fd, sa, err = syscall.Accept(l.fd)
		if err == syscall.EINTR || err == syscall.ECONNABORTED {
			continue
		}
		if err != nil {
			if atomic.LoadUint32(&l.closed) != 0 {
				return nil, errors.Wrap(net.ErrClosed, "accept")
			}
			return nil, errors.Wrap(err, "accept")
		}
		syscall.CloseOnExec(fd)
		return newNetFD(fd, l.addr.Network(), l.addr, sockaddrToAddr(l.addr.Network(), sa))
	}
}

// Close shuts the socket down first so that a blocked Accept returns.
func (l *listener) Close() error {
	if !atomic.CompareAndSwapUint32(&l.closed, 0, 1) {
		return nil
	}
	if l.fd != 0 {
		_ = syscall.Shutdown(l.fd, syscall.SHUT_RDWR)
	}
	if l.file != nil {
		l.file.Close()
	}
	if l.netListener != nil {
		l.netListener.Close()
	}
	return nil
}

func (l *listener) Addr() net.Addr {
	return l.addr
}

func (l *listener) Fd() int {
	return l.fd
}

func (l *listener) parseFD() (err error) {
	switch netListener := l.netListener.(type) {
	case *net.TCPListener:
		l.file, err = netListener.File()
	case *net.UnixListener:
		l.file, err = netListener.File()
	default:
		return errors.New("listener type can't support")
	}
	if err != nil {
		return err
	}
	l.fd = int(l.file.Fd())
	return nil
}

func sockaddrToAddr(network string, sa syscall.Sockaddr) net.Addr {
	switch sa := sa.(type) {
	case *syscall.SockaddrInet4:
		return &net.TCPAddr{IP: append(net.IP{}, sa.Addr[:]...), Port: sa.Port}
	case *syscall.SockaddrInet6:
		return &net.TCPAddr{IP: append(net.IP{}, sa.Addr[:]...), Port: sa.Port}
	case *syscall.SockaddrUnix:
		return &net.UnixAddr{Name: sa.Name, Net: network}
	}
	return nil
}
