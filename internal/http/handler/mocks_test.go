package handler_test

import (
	"context"
	"io"

	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/service"
)

type mockRoomService struct {
	createRoomFn    func(ctx context.Context, params service.CreateRoomParams) (*model.Room, error)
	getRoomFn       func(ctx context.Context, id string) (*model.Room, error)
	getRoomBySlugFn func(ctx context.Context, slug string) (*model.Room, error)
	listRoomsFn     func(ctx context.Context, participantID string) ([]model.Room, error)
	openFn          func(ctx context.Context, roomID, clientID string) (*service.RoomSession, error)
}

func (m *mockRoomService) CreateRoom(ctx context.Context, params service.CreateRoomParams) (*model.Room, error) {
	if m.createRoomFn != nil {
		return m.createRoomFn(ctx, params)
	}
	return nil, nil
}

func (m *mockRoomService) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	if m.getRoomFn != nil {
		return m.getRoomFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRoomService) GetRoomBySlug(ctx context.Context, slug string) (*model.Room, error) {
	if m.getRoomBySlugFn != nil {
		return m.getRoomBySlugFn(ctx, slug)
	}
	return nil, nil
}

func (m *mockRoomService) ListRooms(ctx context.Context, participantID string) ([]model.Room, error) {
	if m.listRoomsFn != nil {
		return m.listRoomsFn(ctx, participantID)
	}
	return []model.Room{}, nil
}

func (m *mockRoomService) Open(ctx context.Context, roomID, clientID string) (*service.RoomSession, error) {
	if m.openFn != nil {
		return m.openFn(ctx, roomID, clientID)
	}
	return nil, nil
}

type mockMessageService struct {
	postFn        func(ctx context.Context, roomID string, params service.PostMessageParams) (*model.Message, error)
	listFn        func(ctx context.Context, roomID string) ([]model.Message, error)
	markReadFn    func(ctx context.Context, roomID, participantID string) error
	reviewStateFn func(ctx context.Context, roomID string) (map[string]model.ReviewOutcome, error)
}

func (m *mockMessageService) Post(ctx context.Context, roomID string, params service.PostMessageParams) (*model.Message, error) {
	if m.postFn != nil {
		return m.postFn(ctx, roomID, params)
	}
	return nil, nil
}

func (m *mockMessageService) List(ctx context.Context, roomID string) ([]model.Message, error) {
	if m.listFn != nil {
		return m.listFn(ctx, roomID)
	}
	return []model.Message{}, nil
}

func (m *mockMessageService) MarkRead(ctx context.Context, roomID, participantID string) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, roomID, participantID)
	}
	return nil
}

func (m *mockMessageService) ReviewState(ctx context.Context, roomID string) (map[string]model.ReviewOutcome, error) {
	if m.reviewStateFn != nil {
		return m.reviewStateFn(ctx, roomID)
	}
	return map[string]model.ReviewOutcome{}, nil
}

type mockAttachmentService struct {
	uploadFn func(ctx context.Context, roomID, name string, r io.Reader, size int64, contentType string) (model.Attachment, error)
}

func (m *mockAttachmentService) Upload(ctx context.Context, roomID, name string, r io.Reader, size int64, contentType string) (model.Attachment, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, roomID, name, r, size, contentType)
	}
	return model.Attachment{}, nil
}
