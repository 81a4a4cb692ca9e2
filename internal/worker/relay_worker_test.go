package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingConsumer struct {
	calls atomic.Int32
	run   func(ctx context.Context) error
}

func (c *countingConsumer) Run(ctx context.Context) error {
	c.calls.Add(1)
	return c.run(ctx)
}

func TestStartRelaySubscriberReturnsWithoutBus(t *testing.T) {
	consumer := &countingConsumer{run: func(context.Context) error { return nil }}

	done := StartRelaySubscriber(context.Background(), consumer, nil)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not exit")
	}
	assert.Equal(t, int32(1), consumer.calls.Load())
}

func TestStartRelaySubscriberStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &countingConsumer{run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	done := StartRelaySubscriber(ctx, consumer, nil)
	require.Eventually(t, func() bool { return consumer.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestStartRelaySubscriberWaitsBeforeRestart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &countingConsumer{run: func(context.Context) error { return errors.New("connection reset") }}

	done := StartRelaySubscriber(ctx, consumer, nil)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int32(1), consumer.calls.Load())
}
