package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var global atomic.Pointer[zap.Logger]

// Init instala el logger global. Solo la primera llamada tiene efecto.
func Init(cfg Config) {
	global.CompareAndSwap(nil, New(cfg))
}

// Replace instala l como logger global y devuelve una función que restaura
// el anterior. Pensado para tests.
func Replace(l *zap.Logger) (restore func()) {
	prev := global.Swap(l)
	return func() { global.Store(prev) }
}

// L devuelve el logger global, o uno dev/info si nadie llamó a Init.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	Init(Config{Env: "dev", Level: "info"})
	return global.Load()
}

// Sync vacía los buffers del logger global.
func Sync() error {
	if l := global.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
