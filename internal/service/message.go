package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"proofroom.app/engine/common/logger"
	"proofroom.app/engine/core/config"
	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/realtime"
	"proofroom.app/engine/internal/review"
	"proofroom.app/engine/internal/store"
)

type PostMessageParams struct {
	SenderID    string
	Type        model.MessageType
	Body        string
	Attachments []model.Attachment
	// LocalID is echoed through the ack and the push copy so the sending
	// client can retire its optimistic record. Never persisted.
	LocalID string
}

// MessageService is the server half of the message flow: durable append to
// the room log, then fan-out on the push channel. Review state is derived
// from the log on demand, never stored.
type MessageService interface {
	Post(ctx context.Context, roomID string, params PostMessageParams) (*model.Message, error)
	List(ctx context.Context, roomID string) ([]model.Message, error)
	MarkRead(ctx context.Context, roomID, participantID string) error
	ReviewState(ctx context.Context, roomID string) (map[string]model.ReviewOutcome, error)
}

type messageService struct {
	rooms     store.RoomStore
	messages  store.MessageStore
	channel   realtime.Channel
	evaluator review.Evaluator
	logger    *slog.Logger
}

func NewMessageService(rooms store.RoomStore, messages store.MessageStore, channel realtime.Channel, cfg config.ReviewConfig, log *slog.Logger) MessageService {
	if log == nil {
		log = slog.Default()
	}
	return &messageService{
		rooms:     rooms,
		messages:  messages,
		channel:   channel,
		evaluator: review.NewEvaluator(cfg.ResponseTimeout),
		logger:    log,
	}
}

func (s *messageService) Post(ctx context.Context, roomID string, params PostMessageParams) (*model.Message, error) {
	if params.Body == "" && len(params.Attachments) == 0 {
		return nil, fmt.Errorf("message body or attachments required")
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("fetching room: %w", err)
	}

	role := room.RoleOf(params.SenderID)
	if role == "" {
		return nil, ErrNotParticipant
	}
	switch params.Type {
	case model.MessageTypeReviewRequest:
		if role != model.RoleProducer {
			return nil, ErrProducerOnly
		}
	case model.MessageTypeReviewResponse:
		if role != model.RoleConsumer {
			return nil, ErrConsumerOnly
		}
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RoomID:    logger.Ptr(roomID),
		ClientID:  logger.Ptr(params.SenderID),
		Component: "engine.service.message",
	})
	sc := logger.StartSpan(ctx, "message.post", trace.WithSpanKind(trace.SpanKindProducer))
	defer sc.End()
	ctx = sc.Context()

	msg, err := s.messages.Append(ctx, &model.Message{
		LocalID:     params.LocalID,
		RoomID:      roomID,
		SenderID:    params.SenderID,
		SenderRole:  role,
		Type:        params.Type,
		Body:        params.Body,
		Attachments: params.Attachments,
	})
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("appending message: %w", err)
	}

	if err := s.channel.Publish(ctx, roomID, *msg); err != nil {
		// The log already holds the message; subscribers recover on refetch.
		s.logger.WarnContext(ctx, "push publish failed", "message_id", msg.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "message posted", "message_id", msg.ID, "type", msg.Type)
	return msg, nil
}

func (s *messageService) List(ctx context.Context, roomID string) ([]model.Message, error) {
	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

func (s *messageService) MarkRead(ctx context.Context, roomID, participantID string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("fetching room: %w", err)
	}

	role := room.RoleOf(participantID)
	if role == "" {
		return ErrNotParticipant
	}

	if err := s.messages.MarkRead(ctx, roomID, role); err != nil {
		return fmt.Errorf("marking room read: %w", err)
	}
	return nil
}

// ReviewState reconciles the full room log and applies the response timeout,
// keyed by review request id.
func (s *messageService) ReviewState(ctx context.Context, roomID string) (map[string]model.ReviewOutcome, error) {
	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return s.evaluator.Resolve(msgs, time.Now().UTC()), nil
}
