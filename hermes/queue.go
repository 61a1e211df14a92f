package hermes

import (
	"context"
	"time"

	"github.com/lunagic/hermes/hermesservices/queue"
)

type consumer func(ctx context.Context)

const consumerRestartDelay = time.Second

// WithQueue consumes q while the app is running. A failing handler is logged
// and consumption resumes after a short delay.
func WithQueue[T any](
	q queue.Queue[T],
	handler queue.Handler[T],
) ConfigurationFunc {
	return func(app *App) error {
		app.consumers = append(app.consumers, func(ctx context.Context) {
			for {
				err := q.Consume(ctx, handler)
				if ctx.Err() != nil {
					return
				}

				app.logger.ErrorContext(ctx, "Queue Consumer Stopped", "queue", q.Name(), "error", err)

				select {
				case <-ctx.Done():
					return
				case <-time.After(consumerRestartDelay):
				}
			}
		})

		return nil
	}
}
