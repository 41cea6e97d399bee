package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"proofroom.app/engine/internal/model"
)

// BlobStore is the slice of the blob layer the attachment flow needs.
type BlobStore interface {
	Upload(ctx context.Context, roomID, name string, r io.Reader, size int64, contentType string) (string, error)
	DownloadURL(ctx context.Context, key string) (string, error)
}

type AttachmentService interface {
	Upload(ctx context.Context, roomID, name string, r io.Reader, size int64, contentType string) (model.Attachment, error)
}

type attachmentService struct {
	blobs  BlobStore
	logger *slog.Logger
}

func NewAttachmentService(blobs BlobStore, log *slog.Logger) AttachmentService {
	if log == nil {
		log = slog.Default()
	}
	return &attachmentService{blobs: blobs, logger: log}
}

// Upload stores the bytes and returns the attachment record to embed in a
// message: the stored object resolved to a time-limited download URL.
func (s *attachmentService) Upload(ctx context.Context, roomID, name string, r io.Reader, size int64, contentType string) (model.Attachment, error) {
	if name == "" {
		return model.Attachment{}, fmt.Errorf("attachment name is required")
	}

	key, err := s.blobs.Upload(ctx, roomID, name, r, size, contentType)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("uploading attachment: %w", err)
	}

	url, err := s.blobs.DownloadURL(ctx, key)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("resolving attachment url: %w", err)
	}

	s.logger.InfoContext(ctx, "attachment uploaded", "room_id", roomID, "key", key, "size", size)
	return model.Attachment{Name: name, URL: url, MimeType: contentType}, nil
}
