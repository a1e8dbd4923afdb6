package notification

import (
	"context"
	"sync"
	"time"

	"consultant-access/internal/logger"

	"go.uber.org/zap"
)

// Async sends on a background goroutine so callers never wait on delivery.
// Failures are logged. Close waits for in-flight sends.
type Async struct {
	next    Dispatcher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Dispatcher, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{next: next, timeout: timeout}
}

// Send always returns nil.
func (a *Async) Send(ctx context.Context, msg Message) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		if err := a.next.Send(sendCtx, msg); err != nil {
			logger.Warn("Notification delivery failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
				zap.String("event", "notification_failed"),
			)
		}
	}()
	return nil
}

func (a *Async) Close() {
	a.wg.Wait()
}
