package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"proofroom.app/engine/common/logger"
	"proofroom.app/engine/internal/model"
)

const (
	redisBlock  = 5 * time.Second
	redisMaxLen = 4096 // per-room stream cap, oldest entries trimmed
)

// RedisChannel fans room events out over one Redis stream per room. Every
// subscriber reads the stream independently (no consumer group): a room
// event goes to all open sessions, and a reader that falls behind simply
// catches up from its last delivered entry.
type RedisChannel struct {
	client *redis.Client
}

func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client}
}

func RoomStreamName(roomID string) string {
	return fmt.Sprintf("room:%s:events", roomID)
}

func (c *RedisChannel) Publish(ctx context.Context, roomID string, msg model.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: RoomStreamName(roomID),
		MaxLen: redisMaxLen,
		Approx: true,
		Values: map[string]any{"message": payload},
	}).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", RoomStreamName(roomID), err)
	}
	return nil
}

func (c *RedisChannel) Subscribe(ctx context.Context, roomID string, opts SubscribeOptions) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &redisSubscription{cancel: cancel, done: make(chan struct{})}

	go c.readLoop(ctx, roomID, opts, sub)

	return sub, nil
}

func (c *RedisChannel) Close() error {
	return c.client.Close()
}

type redisSubscription struct {
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

func (c *RedisChannel) readLoop(ctx context.Context, roomID string, opts SubscribeOptions, sub *redisSubscription) {
	defer close(sub.done)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RoomID:    logger.Ptr(roomID),
		Backend:   logger.Ptr("redis"),
		Component: "engine.realtime.redis",
	})

	stream := RoomStreamName(roomID)
	// Start after the current tail; the opener seeds its mirror from a full
	// fetch, so history is not replayed here. The tail is resolved to a
	// concrete entry id up front so nothing published between two reads can
	// slip through.
	lastID := c.resolveTail(ctx, stream)

	for {
		streams, err := c.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{stream, lastID},
			Count:   64,
			Block:   redisBlock,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, redis.Nil) {
				continue // block timeout, nothing new
			}
			slog.ErrorContext(ctx, "stream read failed, continuity lost", "error", err)
			if opts.OnDrop != nil {
				opts.OnDrop()
			}
			// Re-enter from the tail; the subscriber refetches on drop.
			lastID = c.resolveTail(ctx, stream)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range streams {
			for _, entry := range s.Messages {
				lastID = entry.ID
				msg, err := parseEntry(entry)
				if err != nil {
					slog.ErrorContext(ctx, "failed to parse stream entry",
						"error", err,
						"entry_id", entry.ID)
					continue
				}
				if opts.OnMessage != nil {
					opts.OnMessage(msg)
				}
			}
		}
	}
}

// resolveTail returns the id of the stream's newest entry, or "0" for an
// empty or unreadable stream.
func (c *RedisChannel) resolveTail(ctx context.Context, stream string) string {
	entries, err := c.client.XRevRangeN(ctx, stream, "+", "-", 1).Result()
	if err != nil || len(entries) == 0 {
		return "0"
	}
	return entries[0].ID
}

func parseEntry(entry redis.XMessage) (model.Message, error) {
	raw, ok := entry.Values["message"]
	if !ok {
		return model.Message{}, fmt.Errorf("missing message field")
	}
	var msg model.Message
	if err := json.Unmarshal([]byte(fmt.Sprint(raw)), &msg); err != nil {
		return model.Message{}, fmt.Errorf("unmarshaling message: %w", err)
	}
	return msg, nil
}
