package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/campusmatch/internal/domain"
)

type busMessage struct {
	Origin   string          `json:"origin"`
	Envelope domain.Envelope `json:"envelope"`
}

// RedisBus fans envelopes out to every instance over a Redis pub/sub channel.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisBus creates a bus on channel.
func NewRedisBus(client *redis.Client, channel string, logger *zap.Logger) *RedisBus {
	if channel == "" {
		channel = "campusmatch:chat"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{client: client, channel: channel, logger: logger}
}

// Publish sends env to all subscribers.
func (b *RedisBus) Publish(ctx context.Context, origin string, env domain.Envelope) error {
	payload, err := json.Marshal(busMessage{Origin: origin, Envelope: env})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("relay bus: publish failed: %w", err)
	}
	return nil
}

func (b *RedisBus) presenceKey(userID string) string {
	return b.channel + ":presence:" + userID
}

// Join records that instanceID holds a connection for userID.
func (b *RedisBus) Join(ctx context.Context, userID, instanceID string) error {
	if err := b.client.SAdd(ctx, b.presenceKey(userID), instanceID).Err(); err != nil {
		return fmt.Errorf("relay bus: presence join failed: %w", err)
	}
	return nil
}

// Leave removes instanceID from the holders of userID.
func (b *RedisBus) Leave(ctx context.Context, userID, instanceID string) error {
	if err := b.client.SRem(ctx, b.presenceKey(userID), instanceID).Err(); err != nil {
		return fmt.Errorf("relay bus: presence leave failed: %w", err)
	}
	return nil
}

// Online reports whether any instance holds a connection for userID.
func (b *RedisBus) Online(ctx context.Context, userID string) (bool, error) {
	n, err := b.client.SCard(ctx, b.presenceKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("relay bus: presence lookup failed: %w", err)
	}
	return n > 0, nil
}

// Subscribe blocks, invoking handler for each envelope until ctx is cancelled.
func (b *RedisBus) Subscribe(ctx context.Context, handler func(origin string, env domain.Envelope)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("relay bus: subscribe failed: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("relay bus: subscription closed")
			}
			var decoded busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &decoded); err != nil {
				b.logger.Warn("relay bus: invalid message", zap.Error(err))
				continue
			}
			handler(decoded.Origin, decoded.Envelope)
		}
	}
}
