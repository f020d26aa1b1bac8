package zbuf

import "context"

// OnConnect drives one accepted connection. The connection is closed when it returns.
type OnConnect func(ctx context.Context, conn Conn) error

type EventHandler interface {
	OnConnect(ctx context.Context, conn Conn) error
}

// OnConnect implements EventHandler.
func (f OnConnect) OnConnect(ctx context.Context, conn Conn) error {
	return f(ctx, conn)
}
