package relay

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/campusmatch/internal/domain"
	"github.com/spec-kit/campusmatch/internal/observability"
)

// DeliveryStatus is the observable outcome of a relay attempt.
type DeliveryStatus string

const (
	// StatusDelivered means the frame was queued on the recipient's live connection.
	StatusDelivered DeliveryStatus = "delivered"
	// StatusDropped means the recipient was unreachable; nothing is retried.
	StatusDropped DeliveryStatus = "dropped"
	// StatusForwarded means the envelope was handed to the bus for other instances.
	StatusForwarded DeliveryStatus = "forwarded"
)

// Bus carries envelopes between service instances.
type Bus interface {
	Publish(ctx context.Context, origin string, env domain.Envelope) error
	Subscribe(ctx context.Context, handler func(origin string, env domain.Envelope)) error
}

// Presence records which instances hold a connection for a user. A bus that
// also implements Presence lets Deliver report drops for users offline everywhere.
type Presence interface {
	Join(ctx context.Context, userID, instanceID string) error
	Leave(ctx context.Context, userID, instanceID string) error
	Online(ctx context.Context, userID string) (bool, error)
}

const presenceTimeout = 2 * time.Second

// Relay forwards chat envelopes to live connections, at most once.
type Relay struct {
	registry   *Registry
	bus        Bus
	presence   Presence
	logger     *zap.Logger
	metrics    *observability.Metrics
	instanceID string
}

// Option customizes a Relay.
type Option func(*Relay)

// WithBus enables cross-instance forwarding for recipients not connected locally.
func WithBus(bus Bus) Option {
	return func(r *Relay) {
		r.bus = bus
		if p, ok := bus.(Presence); ok {
			r.presence = p
		}
	}
}

// WithMetrics records delivery outcomes and connection counts.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(r *Relay) { r.metrics = metrics }
}

// New builds a relay over registry.
func New(registry *Registry, logger *zap.Logger, opts ...Option) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Relay{
		registry:   registry,
		logger:     logger,
		instanceID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry exposes the connection registry.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Attach registers conn for userID and closes the connection it replaces.
func (r *Relay) Attach(userID string, conn Conn) {
	previous := r.registry.Register(userID, conn)
	r.updatePresence(userID, true)
	if previous != nil {
		r.logger.Debug("socket replaced", zap.String("user_id", userID))
		_ = previous.Close()
		return
	}
	r.metrics.AddConnections(1)
	r.logger.Debug("socket attached", zap.String("user_id", userID))
}

// Detach unregisters conn unless a newer connection already replaced it.
func (r *Relay) Detach(userID string, conn Conn) {
	if r.registry.Unregister(userID, conn) {
		r.updatePresence(userID, false)
		r.metrics.AddConnections(-1)
		r.logger.Debug("socket detached", zap.String("user_id", userID))
	}
}

// Deliver forwards env to its recipient. A missing or failing recipient
// connection yields StatusDropped rather than an error.
func (r *Relay) Deliver(ctx context.Context, env domain.Envelope) (DeliveryStatus, error) {
	if env.Recipient == "" {
		return StatusDropped, errors.New("relay: recipient required")
	}

	status, err := r.deliverLocal(env)
	if err != nil {
		return StatusDropped, err
	}
	if status == StatusDropped && r.shouldForward(ctx, env.Recipient) {
		if err := r.bus.Publish(ctx, r.instanceID, env); err != nil {
			r.logger.Warn("relay bus publish failed", zap.Error(err), zap.String("recipient", env.Recipient))
		} else {
			status = StatusForwarded
		}
	}

	r.metrics.RecordDelivery(string(status))
	return status, nil
}

// Disconnect closes the local connection of userID, if any. The socket's own
// close path then detaches it.
func (r *Relay) Disconnect(userID string) bool {
	conn, ok := r.registry.Lookup(userID)
	if !ok {
		return false
	}
	_ = conn.Close()
	r.logger.Debug("socket disconnected", zap.String("user_id", userID))
	return true
}

// shouldForward is true when a bus is configured, the recipient has no local
// connection and presence does not rule out a remote one.
func (r *Relay) shouldForward(ctx context.Context, userID string) bool {
	if r.bus == nil {
		return false
	}
	if _, local := r.registry.Lookup(userID); local {
		return false
	}
	return r.onlineElsewhere(ctx, userID)
}

// onlineElsewhere reports whether forwarding can reach the recipient. Without
// presence tracking every recipient is assumed reachable. Lookup failures
// also fall back to publishing.
func (r *Relay) onlineElsewhere(ctx context.Context, userID string) bool {
	if r.presence == nil {
		return true
	}
	online, err := r.presence.Online(ctx, userID)
	if err != nil {
		r.logger.Warn("relay presence lookup failed", zap.Error(err), zap.String("recipient", userID))
		return true
	}
	return online
}

func (r *Relay) updatePresence(userID string, online bool) {
	if r.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	var err error
	if online {
		err = r.presence.Join(ctx, userID, r.instanceID)
	} else {
		err = r.presence.Leave(ctx, userID, r.instanceID)
	}
	if err != nil {
		r.logger.Warn("relay presence update failed", zap.Error(err), zap.String("user_id", userID), zap.Bool("online", online))
	}
}

func (r *Relay) deliverLocal(env domain.Envelope) (DeliveryStatus, error) {
	conn, ok := r.registry.Lookup(env.Recipient)
	if !ok {
		return StatusDropped, nil
	}
	frame, err := encodeMessage(env)
	if err != nil {
		return StatusDropped, err
	}
	if err := conn.Send(frame); err != nil {
		r.logger.Debug("relay send failed", zap.Error(err), zap.String("recipient", env.Recipient))
		return StatusDropped, nil
	}
	return StatusDelivered, nil
}

// Run consumes envelopes published by other instances until ctx ends.
// It returns immediately when no bus is configured.
func (r *Relay) Run(ctx context.Context) error {
	if r.bus == nil {
		return nil
	}
	return r.bus.Subscribe(ctx, func(origin string, env domain.Envelope) {
		if origin == r.instanceID {
			return
		}
		status, err := r.deliverLocal(env)
		if err != nil {
			r.logger.Warn("relay bus delivery failed", zap.Error(err))
			return
		}
		if status == StatusDelivered {
			r.metrics.RecordDelivery(string(status))
		}
	})
}
