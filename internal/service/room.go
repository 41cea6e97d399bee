package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"proofroom.app/engine/common/logger"
	"proofroom.app/engine/core/config"
	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/realtime"
	"proofroom.app/engine/internal/store"
)

type CreateRoomParams struct {
	Title      string `json:"title"`
	ProducerID string `json:"producer_id"`
	ConsumerID string `json:"consumer_id"`
}

// RoomService owns room lifecycle and hands out live sessions. A session is
// the unit of participation: one client, one room, one push subscription.
type RoomService interface {
	CreateRoom(ctx context.Context, params CreateRoomParams) (*model.Room, error)
	GetRoom(ctx context.Context, id string) (*model.Room, error)
	GetRoomBySlug(ctx context.Context, slug string) (*model.Room, error)
	ListRooms(ctx context.Context, participantID string) ([]model.Room, error)
	Open(ctx context.Context, roomID, clientID string) (*RoomSession, error)
}

type roomService struct {
	rooms    store.RoomStore
	messages store.MessageStore
	channel  realtime.Channel
	cfg      config.ReviewConfig
	logger   *slog.Logger
}

func NewRoomService(rooms store.RoomStore, messages store.MessageStore, channel realtime.Channel, cfg config.ReviewConfig, log *slog.Logger) RoomService {
	if log == nil {
		log = slog.Default()
	}
	return &roomService{
		rooms:    rooms,
		messages: messages,
		channel:  channel,
		cfg:      cfg,
		logger:   log,
	}
}

func (s *roomService) CreateRoom(ctx context.Context, params CreateRoomParams) (*model.Room, error) {
	if params.Title == "" || params.ProducerID == "" || params.ConsumerID == "" {
		return nil, fmt.Errorf("title, producer_id, and consumer_id are required")
	}
	if params.ProducerID == params.ConsumerID {
		return nil, fmt.Errorf("producer and consumer must be distinct participants")
	}

	room := &model.Room{
		Title:      params.Title,
		ProducerID: params.ProducerID,
		ConsumerID: params.ConsumerID,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("creating room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", room.ID, "slug", room.Slug)
	return room, nil
}

func (s *roomService) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("fetching room: %w", err)
	}
	return room, nil
}

func (s *roomService) GetRoomBySlug(ctx context.Context, slug string) (*model.Room, error) {
	room, err := s.rooms.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("fetching room by slug: %w", err)
	}
	return room, nil
}

func (s *roomService) ListRooms(ctx context.Context, participantID string) ([]model.Room, error) {
	rooms, err := s.rooms.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	return rooms, nil
}

// Open fetches the full log, seeds the client mirror, subscribes to the push
// channel, and starts the timeout poll. The returned session must be Closed.
func (s *roomService) Open(ctx context.Context, roomID, clientID string) (*RoomSession, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RoomID:    logger.Ptr(roomID),
		ClientID:  logger.Ptr(clientID),
		Component: "engine.service.room",
	})

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	role := room.RoleOf(clientID)
	if role == "" {
		return nil, ErrNotParticipant
	}

	sess := newRoomSession(room, clientID, role, s.messages, s.channel, s.cfg, s.logger)

	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("fetching message log: %w", err)
	}
	sess.mirror.Reset(msgs)

	sub, err := s.channel.Subscribe(ctx, roomID, realtime.SubscribeOptions{
		OnMessage: sess.handleIncoming,
		OnDrop:    sess.handleDrop,
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to room channel: %w", err)
	}
	sess.sub = sub

	sess.start()
	s.logger.InfoContext(ctx, "room session opened", "room_id", roomID, "client_id", clientID, "role", role, "log_len", len(msgs))
	return sess, nil
}
