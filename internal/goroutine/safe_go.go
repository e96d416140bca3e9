// Package goroutine запускает фоновые горутины с перехватом panic.
// Используется для отправки уведомлений вне цикла запроса: упавшая
// горутина не должна ронять процесс.
package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/ignatzorin/flytster-backend/internal/logger"
)

func recoverAndLog() {
	if r := recover(); r != nil {
		if logger.Log != nil {
			logger.Log.Errorf("Panic in goroutine: %v\nStack trace:\n%s", r, debug.Stack())
		}
	}
}

// SafeGo запускает горутину с обработкой panic.
func SafeGo(fn func()) {
	go func() {
		defer recoverAndLog()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer recoverAndLog()
		fn(ctx)
	}()
}
