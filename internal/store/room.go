package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"proofroom.app/engine/common"
	"proofroom.app/engine/common/id"
	"proofroom.app/engine/core/db"
	"proofroom.app/engine/internal/model"
)

type roomStore struct {
	db *db.DB
}

func newRoomStore(database *db.DB) RoomStore {
	return &roomStore{db: database}
}

func (s *roomStore) Create(ctx context.Context, room *model.Room) error {
	if room.ID == "" {
		room.ID = id.New()
	}
	if room.Slug == "" {
		slug, err := common.RoomSlug(room.Title, room.ID)
		if err != nil {
			return fmt.Errorf("building room slug: %w", err)
		}
		room.Slug = slug
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO rooms (id, slug, title, producer_id, consumer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		room.ID, room.Slug, room.Title, room.ProducerID, room.ConsumerID, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating room: %w", err)
	}
	return nil
}

func (s *roomStore) GetByID(ctx context.Context, roomID string) (*model.Room, error) {
	return s.get(ctx, "id", roomID)
}

func (s *roomStore) GetBySlug(ctx context.Context, slug string) (*model.Room, error) {
	return s.get(ctx, "slug", slug)
}

func (s *roomStore) get(ctx context.Context, column, value string) (*model.Room, error) {
	row := s.db.Pool().QueryRow(ctx, fmt.Sprintf(`
		SELECT id, slug, title, producer_id, consumer_id, created_at
		FROM rooms WHERE %s = $1`, column),
		value,
	)

	var room model.Room
	if err := row.Scan(&room.ID, &room.Slug, &room.Title, &room.ProducerID, &room.ConsumerID, &room.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting room by %s: %w", column, err)
	}
	return &room, nil
}

func (s *roomStore) ListByParticipant(ctx context.Context, participantID string) ([]model.Room, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT id, slug, title, producer_id, consumer_id, created_at
		FROM rooms
		WHERE producer_id = $1 OR consumer_id = $1
		ORDER BY created_at DESC`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Slug, &room.Title, &room.ProducerID, &room.ConsumerID, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}
	return rooms, nil
}
