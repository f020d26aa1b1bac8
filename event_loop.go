package zbuf

import (
	"context"
	"net"
	"runtime"
	"sync"
)

type EventLoop interface {
	Serve(listener net.Listener) error
	Shutdown(ctx context.Context) error
}

// LoopOption configures an EventLoop.
type LoopOption func(o *loopOptions)

type loopOptions struct {
	connOpts []ConnOption
	logger   Logger
}

// WithConnOptions applies opts to every accepted connection.
func WithConnOptions(opts ...ConnOption) LoopOption {
	return func(o *loopOptions) {
		o.connOpts = append(o.connOpts, opts...)
	}
}

func WithLoopLogger(l Logger) LoopOption {
	return func(o *loopOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func NewEventLoop(eh EventHandler, opts ...LoopOption) EventLoop {
	o := &loopOptions{logger: DefaultLogger()}
	for _, opt := range opts {
		opt(o)
	}
	return &eventLoop{
		o:    o,
		stop: make(chan error, 1),
		eh:   eh,
	}
}

type eventLoop struct {
	sync.Mutex
	o    *loopOptions
	s    *server
	stop chan error
	eh   EventHandler
}

// Serve accepts connections until Shutdown or an accept failure.
// TCP and unix listeners are converted to blocking descriptors; any other
// listener is used as is.
func (evl *eventLoop) Serve(netListener net.Listener) error {
	var l net.Listener = netListener
	if converted, err := ConvertListener(netListener); err == nil {
		l = converted
	} else {
		evl.o.logger.Infof("serve %s without descriptor takeover: %v", netListener.Addr(), err)
	}
	evl.Lock()
	evl.s = newServer(l, evl.eh, evl.o)
	evl.s.Run(evl.quit)
	evl.Unlock()

	err := evl.waitQuit()
	// ensure evl will not be finalized until Serve returns
	runtime.SetFinalizer(evl, nil)
	return err
}

// Shutdown signals a shutdown and begins server closing.
func (evl *eventLoop) Shutdown(ctx context.Context) error {
	evl.Lock()
	s := evl.s
	evl.Unlock()

	evl.quit(nil)
	if s == nil {
		return nil
	}
	return s.Close(ctx)
}

// waitQuit waits for a quit signal
func (evl *eventLoop) waitQuit() error {
	return <-evl.stop
}

func (evl *eventLoop) quit(err error) {
	select {
	case evl.stop <- err:
	default:
	}
}
