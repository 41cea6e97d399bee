package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"proofroom.app/engine/internal/model"
)

// NATSChannel fans room events out over one subject per room. Reconnects are
// handled by the client; because a gap may have opened while disconnected,
// every active subscription is told to treat its view as stale.
type NATSChannel struct {
	conn *nats.Conn

	mu   sync.Mutex
	subs map[*natsSubscription]struct{}
}

func NewNATSChannel(url string) (*NATSChannel, error) {
	c := &NATSChannel{subs: make(map[*natsSubscription]struct{})}

	conn, err := nats.Connect(url,
		nats.Name("proofroom-engine"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
			c.notifyDrop()
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	c.conn = conn
	return c, nil
}

func RoomSubject(roomID string) string {
	return "proofroom.room." + roomID
}

func (c *NATSChannel) Publish(ctx context.Context, roomID string, msg model.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	if err := c.conn.Publish(RoomSubject(roomID), payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", RoomSubject(roomID), err)
	}
	return nil
}

func (c *NATSChannel) Subscribe(ctx context.Context, roomID string, opts SubscribeOptions) (Subscription, error) {
	sub := &natsSubscription{channel: c, onDrop: opts.OnDrop}

	natsSub, err := c.conn.Subscribe(RoomSubject(roomID), func(m *nats.Msg) {
		var msg model.Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			slog.Error("failed to parse room event",
				"error", err,
				"subject", m.Subject)
			return
		}
		if opts.OnMessage != nil {
			opts.OnMessage(msg)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", RoomSubject(roomID), err)
	}
	sub.sub = natsSub

	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	return sub, nil
}

func (c *NATSChannel) Close() error {
	c.conn.Drain()
	return nil
}

func (c *NATSChannel) notifyDrop() {
	c.mu.Lock()
	subs := make([]*natsSubscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		if s.onDrop != nil {
			s.onDrop()
		}
	}
}

type natsSubscription struct {
	channel *NATSChannel
	sub     *nats.Subscription
	onDrop  func()
}

func (s *natsSubscription) Close() error {
	s.channel.mu.Lock()
	delete(s.channel.subs, s)
	s.channel.mu.Unlock()
	return s.sub.Unsubscribe()
}
