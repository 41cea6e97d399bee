package service_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/realtime"
)

type mockRoomStore struct {
	createFn            func(ctx context.Context, room *model.Room) error
	getByIDFn           func(ctx context.Context, id string) (*model.Room, error)
	getBySlugFn         func(ctx context.Context, slug string) (*model.Room, error)
	listByParticipantFn func(ctx context.Context, participantID string) ([]model.Room, error)
}

func (m *mockRoomStore) Create(ctx context.Context, room *model.Room) error {
	if m.createFn != nil {
		return m.createFn(ctx, room)
	}
	return nil
}

func (m *mockRoomStore) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRoomStore) GetBySlug(ctx context.Context, slug string) (*model.Room, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, nil
}

func (m *mockRoomStore) ListByParticipant(ctx context.Context, participantID string) ([]model.Room, error) {
	if m.listByParticipantFn != nil {
		return m.listByParticipantFn(ctx, participantID)
	}
	return []model.Room{}, nil
}

type mockMessageStore struct {
	appendFn     func(ctx context.Context, msg *model.Message) (*model.Message, error)
	listByRoomFn func(ctx context.Context, roomID string) ([]model.Message, error)
	markReadFn   func(ctx context.Context, roomID string, reader model.Role) error
	markReadCall int
}

func (m *mockMessageStore) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if m.appendFn != nil {
		return m.appendFn(ctx, msg)
	}
	return msg, nil
}

func (m *mockMessageStore) ListByRoom(ctx context.Context, roomID string) ([]model.Message, error) {
	if m.listByRoomFn != nil {
		return m.listByRoomFn(ctx, roomID)
	}
	return []model.Message{}, nil
}

func (m *mockMessageStore) MarkRead(ctx context.Context, roomID string, reader model.Role) error {
	m.markReadCall++
	if m.markReadFn != nil {
		return m.markReadFn(ctx, roomID, reader)
	}
	return nil
}

type mockBlobStore struct {
	uploadFn      func(ctx context.Context, roomID, name string, r io.Reader, size int64, contentType string) (string, error)
	downloadURLFn func(ctx context.Context, key string) (string, error)
}

func (m *mockBlobStore) Upload(ctx context.Context, roomID, name string, r io.Reader, size int64, contentType string) (string, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, roomID, name, r, size, contentType)
	}
	return roomID + "/" + name, nil
}

func (m *mockBlobStore) DownloadURL(ctx context.Context, key string) (string, error) {
	if m.downloadURLFn != nil {
		return m.downloadURLFn(ctx, key)
	}
	return "https://blob.test/" + key, nil
}

// memLog is an in-memory append-only log with server-assigned ids, so tests
// can drive two sessions against one authoritative store.
type memLog struct {
	mu   sync.Mutex
	seq  int
	msgs []model.Message
}

func (l *memLog) Append(_ context.Context, msg *model.Message) (*model.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	stored := *msg
	stored.ID = fmt.Sprintf("srv-%d", l.seq)
	stored.LocalID = ""
	stored.Pending = false
	stored.CreatedAt = time.Now().UTC()
	l.msgs = append(l.msgs, stored)
	out := stored
	return &out, nil
}

func (l *memLog) ListByRoom(_ context.Context, roomID string) ([]model.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Message, 0, len(l.msgs))
	for _, m := range l.msgs {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (l *memLog) MarkRead(_ context.Context, roomID string, reader model.Role) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.msgs {
		if l.msgs[i].RoomID != roomID {
			continue
		}
		if l.msgs[i].ReadBy == nil {
			l.msgs[i].ReadBy = make(map[model.Role]bool)
		}
		l.msgs[i].ReadBy[reader] = true
	}
	return nil
}

// subscribeCollect appends every delivery to dst.
func subscribeCollect(dst *[]model.Message) realtime.SubscribeOptions {
	return realtime.SubscribeOptions{
		OnMessage: func(msg model.Message) {
			*dst = append(*dst, msg)
		},
	}
}

// memChannel fans Publish out synchronously to every subscriber of the room,
// standing in for the redis/nats backends.
type memChannel struct {
	mu   sync.Mutex
	subs map[string][]*memSub
}

type memSub struct {
	ch     *memChannel
	roomID string
	opts   realtime.SubscribeOptions
	closed bool
}

func newMemChannel() *memChannel {
	return &memChannel{subs: make(map[string][]*memSub)}
}

func (c *memChannel) Publish(_ context.Context, roomID string, msg model.Message) error {
	c.mu.Lock()
	subs := append([]*memSub(nil), c.subs[roomID]...)
	c.mu.Unlock()
	for _, s := range subs {
		if s.opts.OnMessage != nil {
			s.opts.OnMessage(msg)
		}
	}
	return nil
}

func (c *memChannel) Subscribe(_ context.Context, roomID string, opts realtime.SubscribeOptions) (realtime.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := &memSub{ch: c, roomID: roomID, opts: opts}
	c.subs[roomID] = append(c.subs[roomID], sub)
	return sub, nil
}

func (c *memChannel) Close() error { return nil }

// drop fires every subscriber's OnDrop, simulating a backend disconnect.
func (c *memChannel) drop(roomID string) {
	c.mu.Lock()
	subs := append([]*memSub(nil), c.subs[roomID]...)
	c.mu.Unlock()
	for _, s := range subs {
		if s.opts.OnDrop != nil {
			s.opts.OnDrop()
		}
	}
}

func (s *memSub) Close() error {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	subs := s.ch.subs[s.roomID]
	for i, sub := range subs {
		if sub == s {
			s.ch.subs[s.roomID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	return nil
}
