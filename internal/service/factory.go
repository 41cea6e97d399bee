package service

import (
	"log/slog"

	"proofroom.app/engine/core/config"
	"proofroom.app/engine/internal/realtime"
	"proofroom.app/engine/internal/store"
)

type Services struct {
	stores  *store.Stores
	channel realtime.Channel
	blobs   BlobStore
	cfg     config.Config
	logger  *slog.Logger
}

func NewServices(stores *store.Stores, channel realtime.Channel, blobs BlobStore, cfg config.Config, logger *slog.Logger) *Services {
	return &Services{
		stores:  stores,
		channel: channel,
		blobs:   blobs,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *Services) Rooms() RoomService {
	return NewRoomService(s.stores.Rooms(), s.stores.Messages(), s.channel, s.cfg.Review, s.logger)
}

func (s *Services) Messages() MessageService {
	return NewMessageService(s.stores.Rooms(), s.stores.Messages(), s.channel, s.cfg.Review, s.logger)
}

func (s *Services) Attachments() AttachmentService {
	return NewAttachmentService(s.blobs, s.logger)
}
