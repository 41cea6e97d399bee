package store

import (
	"context"
	"errors"

	"proofroom.app/engine/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// MessageStore is the append-only log contract. Append assigns the canonical
// id and server timestamp; the server clock wins over whatever the optimistic
// record carried. Messages are immutable after append except for read state.
type MessageStore interface {
	Append(ctx context.Context, msg *model.Message) (*model.Message, error)
	ListByRoom(ctx context.Context, roomID string) ([]model.Message, error)
	MarkRead(ctx context.Context, roomID string, reader model.Role) error
}

// RoomStore defines the contract for room data access.
type RoomStore interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetBySlug(ctx context.Context, slug string) (*model.Room, error)
	ListByParticipant(ctx context.Context, participantID string) ([]model.Room, error)
}
