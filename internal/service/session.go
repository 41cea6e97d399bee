package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"proofroom.app/engine/common/logger"
	"proofroom.app/engine/core/config"
	"proofroom.app/engine/internal/mirror"
	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/realtime"
	"proofroom.app/engine/internal/review"
	"proofroom.app/engine/internal/store"
)

// Snapshot is what the session hands the UI: the merged message view plus the
// derived resolution of every review request in it. Outcomes are keyed by the
// request's canonical id, or its local id while still pending.
type Snapshot struct {
	Messages []model.Message
	Outcomes map[string]model.ReviewOutcome
}

const refetchTimeout = 10 * time.Second

// RoomSession is one client's live attachment to a room: the local mirror,
// the push subscription feeding it, and a poll that re-derives review state
// so timeouts surface without any new message arriving.
type RoomSession struct {
	room     *model.Room
	clientID string
	role     model.Role

	messages store.MessageStore
	channel  realtime.Channel
	sub      realtime.Subscription

	mirror    *mirror.Store
	evaluator review.Evaluator
	pollEvery time.Duration

	snapshots chan Snapshot
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func newRoomSession(room *model.Room, clientID string, role model.Role, messages store.MessageStore, channel realtime.Channel, cfg config.ReviewConfig, log *slog.Logger) *RoomSession {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	return &RoomSession{
		room:      room,
		clientID:  clientID,
		role:      role,
		messages:  messages,
		channel:   channel,
		mirror:    mirror.New(mirror.Config{MatchWindow: cfg.PendingMatchWindow}),
		evaluator: review.NewEvaluator(cfg.ResponseTimeout),
		pollEvery: cfg.PollInterval,
		snapshots: make(chan Snapshot, 1),
		done:      make(chan struct{}),
		logger:    log,
	}
}

func (s *RoomSession) Room() *model.Room { return s.room }

func (s *RoomSession) Role() model.Role { return s.role }

// Snapshots delivers the latest view after every change and on each poll
// tick. The channel is coalescing: a slow reader sees only the newest
// snapshot, never a backlog.
func (s *RoomSession) Snapshots() <-chan Snapshot { return s.snapshots }

// Current recomputes the snapshot on demand without waiting for a push.
func (s *RoomSession) Current() Snapshot { return s.buildSnapshot() }

func (s *RoomSession) start() {
	s.publishSnapshot()
	go s.pollLoop()
}

// SendMessage appends a chat or file message: optimistic insert, durable
// append, publish, then retire the pending record with the canonical copy.
// On append failure the pending record is dropped and the error returned;
// the message is never left looking sent.
func (s *RoomSession) SendMessage(ctx context.Context, msgType model.MessageType, body string, attachments []model.Attachment) (model.Message, error) {
	return s.send(ctx, msgType, body, attachments)
}

// SubmitReviewRequest posts a review request. Producer only.
func (s *RoomSession) SubmitReviewRequest(ctx context.Context, summary string, attachments []model.Attachment) (model.Message, error) {
	if s.role != model.RoleProducer {
		return model.Message{}, ErrProducerOnly
	}
	return s.send(ctx, model.MessageTypeReviewRequest, summary, attachments)
}

// SubmitReviewResponse posts a review response. Consumer only. Feedback text
// is mandatory unless the action is an approval; the body is built so every
// client infers the same action back from it.
func (s *RoomSession) SubmitReviewResponse(ctx context.Context, action model.ReviewAction, feedbackText string) (model.Message, error) {
	if s.role != model.RoleConsumer {
		return model.Message{}, ErrConsumerOnly
	}
	if action != model.ReviewActionApprove && feedbackText == "" {
		return model.Message{}, ErrFeedbackRequired
	}
	body := review.FormatResponseBody(action, feedbackText)
	return s.send(ctx, model.MessageTypeReviewResponse, body, nil)
}

func (s *RoomSession) send(ctx context.Context, msgType model.MessageType, body string, attachments []model.Attachment) (model.Message, error) {
	if err := s.closedErr(); err != nil {
		return model.Message{}, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RoomID:    logger.Ptr(s.room.ID),
		ClientID:  logger.Ptr(s.clientID),
		Component: "engine.service.session",
	})

	pending := s.mirror.InsertPending(model.Message{
		RoomID:      s.room.ID,
		SenderID:    s.clientID,
		SenderRole:  s.role,
		Type:        msgType,
		Body:        body,
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
	})
	s.publishSnapshot()

	canonical, err := s.messages.Append(ctx, &pending)
	if err != nil {
		s.mirror.DropPending(pending.LocalID)
		s.publishSnapshot()
		return model.Message{}, fmt.Errorf("appending message: %w", err)
	}

	s.mirror.ConfirmPending(pending.LocalID, *canonical)
	s.publishSnapshot()

	if err := s.channel.Publish(ctx, s.room.ID, *canonical); err != nil {
		// The log is durable; the counterpart catches up on its next refetch.
		s.logger.WarnContext(ctx, "push publish failed", "message_id", canonical.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "message sent", "message_id", canonical.ID, "type", msgType)

	confirmed := *canonical
	confirmed.LocalID = pending.LocalID
	return confirmed, nil
}

// MarkRead marks every confirmed message read for this session's role, both
// durably and in the local view.
func (s *RoomSession) MarkRead(ctx context.Context) error {
	if err := s.closedErr(); err != nil {
		return err
	}
	if err := s.messages.MarkRead(ctx, s.room.ID, s.role); err != nil {
		return fmt.Errorf("marking messages read: %w", err)
	}
	s.mirror.MarkRead(s.role)
	s.publishSnapshot()
	return nil
}

// Close stops the poll and the push subscription together. Idempotent.
func (s *RoomSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.sub != nil {
			err = s.sub.Close()
		}
	})
	return err
}

func (s *RoomSession) handleIncoming(msg model.Message) {
	if s.closedErr() != nil {
		return
	}
	s.mirror.MergeIncoming(msg)
	s.publishSnapshot()
}

// handleDrop runs when the push channel lost continuity. The merge stream may
// have holes, so the whole log is refetched and the mirror reset from it.
func (s *RoomSession) handleDrop() {
	if s.closedErr() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
	defer cancel()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RoomID:    logger.Ptr(s.room.ID),
		ClientID:  logger.Ptr(s.clientID),
		Component: "engine.service.session",
	})

	s.logger.WarnContext(ctx, "push channel dropped, refetching log")

	msgs, err := s.messages.ListByRoom(ctx, s.room.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "log refetch after drop failed", "error", err)
		return
	}
	s.mirror.Reset(msgs)
	s.publishSnapshot()
}

func (s *RoomSession) pollLoop() {
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.publishSnapshot()
		}
	}
}

func (s *RoomSession) buildSnapshot() Snapshot {
	msgs := s.mirror.Snapshot()
	return Snapshot{
		Messages: msgs,
		Outcomes: s.evaluator.Resolve(msgs, time.Now().UTC()),
	}
}

func (s *RoomSession) publishSnapshot() {
	snap := s.buildSnapshot()
	for {
		select {
		case s.snapshots <- snap:
			return
		default:
			// Displace the stale snapshot rather than block.
			select {
			case <-s.snapshots:
			default:
			}
		}
	}
}

func (s *RoomSession) closedErr() error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
		return nil
	}
}
