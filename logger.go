package zbuf

import (
	"github.com/zhihanii/zlog"
	"go.uber.org/zap"
)

// Logger is the diagnostics sink used by buffers and connections.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

var nopLogger Logger = zap.NewNop().Sugar()

type zlogLogger struct{}

func (zlogLogger) Infof(format string, args ...any) {
	zlog.Infof(format, args...)
}

func (zlogLogger) Errorf(format string, args ...any) {
	zlog.Errorf(format, args...)
}

// DefaultLogger forwards to the process-wide zlog logger.
func DefaultLogger() Logger {
	return zlogLogger{}
}
