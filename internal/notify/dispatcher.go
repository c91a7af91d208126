package notify

import (
	"context"
	"sync"
	"time"

	"kirana-be/internal/logger"

	"go.uber.org/zap"
)

// Runner executes side effects detached from the calling request. Failures
// are logged and discarded; they never reach the caller.
type Runner interface {
	Go(op string, fn func(ctx context.Context) error)
}

// Dispatcher runs each side effect on its own goroutine with a fresh
// timeout context, so a slow mail transport or a failing balance write
// never delays or fails the HTTP response that triggered it.
type Dispatcher struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{timeout: timeout}
}

func (d *Dispatcher) Go(op string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.L().Error("side effect panicked",
					zap.String("op", op),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.L().Error("side effect failed",
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all dispatched side effects finish. Used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
