package zbuf

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zhihanii/taskpool"
)

func newServer(listener net.Listener, eh EventHandler, opts *loopOptions) *server {
	ctx, cancel := context.WithCancel(context.Background())
	return &server{
		o:        opts,
		eh:       eh,
		listener: listener,
		ctx:      ctx,
		cancel:   cancel,
	}
}

type gracefulExit interface {
	isIdle() bool
	Close() error
}

type server struct {
	o           *loopOptions
	eh          EventHandler
	listener    net.Listener
	ctx         context.Context
	cancel      context.CancelFunc
	connections sync.Map
}

// Run starts the accept loop; quit receives its terminal error.
func (s *server) Run(quit func(error)) {
	go func() {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					quit(nil)
					return
				}
				s.o.logger.Errorf("accept connection failed: %v", err)
				quit(err)
				return
			}
			s.OnAccept(conn)
		}
	}()
}

// Close stops accepting, then closes connections as they turn idle. When ctx
// ends first the rest are closed forcibly.
func (s *server) Close(ctx context.Context) error {
	s.listener.Close()

	var ticker = time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	var hasConn bool
	for {
		hasConn = false
		s.connections.Range(func(key, value interface{}) bool {
			var conn, ok = value.(gracefulExit)
			if !ok || conn.isIdle() {
				value.(Conn).Close()
			}
			hasConn = true
			return true
		})
		if !hasConn { // all connections have been closed
			s.cancel()
			return nil
		}

		select {
		case <-ctx.Done():
			s.cancel()
			s.connections.Range(func(key, value interface{}) bool {
				value.(Conn).Close()
				return true
			})
			return ctx.Err()
		case <-ticker.C:
			continue
		}
	}
}

func (s *server) OnAccept(nc net.Conn) {
	var c = newConnection(s.ctx, nc, s.o.connOpts...)
	c.addCloseCallback(func(c *connection) {
		s.connections.Delete(c)
	})
	s.connections.Store(c, c)

	taskpool.Submit(c.ctx, func() {
		err := s.eh.OnConnect(c.ctx, c)
		if errors.Is(err, io.EOF) || errors.Is(err, ErrEndOfBuffer) {
			c.closeByPeer()
			return
		}
		if err != nil && c.IsActive() {
			s.o.logger.Errorf("conn %s handler failed: %v", c.RemoteAddr(), err)
		}
		c.Close()
	})
}
