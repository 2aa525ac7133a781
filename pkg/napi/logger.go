package napi

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the logger shared by the runtime packages.
// It uses a no-op logger by default. Safe to call from host threads.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

// SetLogger configures the runtime logger. A nil logger restores the
// no-op default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = nop
	}
	logger.Store(l)
}
