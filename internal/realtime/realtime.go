// Package realtime bridges the per-room push channel to subscribers.
// Delivery is at-least-once with no ordering guarantee beyond best effort;
// consumers dedupe by canonical id, so redelivery is always safe.
package realtime

import (
	"context"

	"proofroom.app/engine/internal/model"
)

// Handler receives each message delivered for a room.
type Handler func(msg model.Message)

// SubscribeOptions carries the delivery callbacks. OnDrop fires when the
// backend lost continuity (disconnect, read error); the subscriber must
// treat its view as stale and refetch the full log, since the merge stream
// may be incomplete.
type SubscribeOptions struct {
	OnMessage Handler
	OnDrop    func()
}

type Subscription interface {
	Close() error
}

// Channel is the push-channel contract rooms fan out through.
type Channel interface {
	Publish(ctx context.Context, roomID string, msg model.Message) error
	Subscribe(ctx context.Context, roomID string, opts SubscribeOptions) (Subscription, error)
	Close() error
}
