package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// BusConsumer consumes cross-instance chat traffic until ctx ends.
type BusConsumer interface {
	Run(ctx context.Context) error
}

const relayRestartDelay = 2 * time.Second

// StartRelaySubscriber runs consumer in the background and restarts it after
// failures until ctx is cancelled. The returned channel closes on exit.
func StartRelaySubscriber(ctx context.Context, consumer BusConsumer, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		defer close(done)
		for {
			err := consumer.Run(ctx)
			if ctx.Err() != nil {
				return
			}
			if err == nil {
				// Nothing to consume.
				return
			}
			if !errors.Is(err, context.Canceled) {
				logger.Warn("relay subscriber stopped, restarting", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(relayRestartDelay):
			}
		}
	}()
	return done
}
