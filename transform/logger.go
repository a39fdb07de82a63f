package transform

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/druta/transform/internal/engine"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

// Logger returns the package logger. It is a no-op logger by default.
func Logger() *zap.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// SetLogger sets the logger used by transforms that do not carry their
// own in Config. It also becomes the engine's logger.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
	engine.SetLogger(l)
}
