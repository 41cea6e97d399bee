package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"proofroom.app/engine/common/id"
	"proofroom.app/engine/core/db"
	"proofroom.app/engine/internal/model"
)

type messageStore struct {
	db *db.DB
}

func newMessageStore(database *db.DB) MessageStore {
	return &messageStore{db: database}
}

// Append assigns the canonical id and server timestamp, persists the message
// and returns the confirmed copy. The caller's optimistic CreatedAt is
// discarded; the local id is echoed back for pending-record correlation but
// never stored.
func (s *messageStore) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	canonical := *msg
	canonical.ID = id.New()
	canonical.CreatedAt = time.Now().UTC()
	canonical.Pending = false

	if canonical.Attachments == nil {
		canonical.Attachments = []model.Attachment{}
	}
	if canonical.ReadBy == nil {
		// jsonb concatenation in MarkRead requires an object, not null.
		canonical.ReadBy = map[model.Role]bool{}
	}
	attachments, err := json.Marshal(canonical.Attachments)
	if err != nil {
		return nil, fmt.Errorf("marshaling attachments: %w", err)
	}
	readBy, err := json.Marshal(canonical.ReadBy)
	if err != nil {
		return nil, fmt.Errorf("marshaling read state: %w", err)
	}

	_, err = s.db.Pool().Exec(ctx, `
		INSERT INTO messages (id, room_id, sender_id, sender_role, type, body, attachments, read_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		canonical.ID, canonical.RoomID, canonical.SenderID, string(canonical.SenderRole),
		string(canonical.Type), canonical.Body, attachments, readBy, canonical.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	return &canonical, nil
}

func (s *messageStore) ListByRoom(ctx context.Context, roomID string) ([]model.Message, error) {
	rows, err := s.db.Pool().Query(ctx, `
		SELECT id, room_id, sender_id, sender_role, type, body, attachments, read_by, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at, seq`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var (
			m           model.Message
			role, typ   string
			attachments []byte
			readBy      []byte
		)
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &role, &typ, &m.Body, &attachments, &readBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.SenderRole = model.Role(role)
		m.Type = model.MessageType(typ)
		if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
			return nil, fmt.Errorf("unmarshaling attachments for %s: %w", m.ID, err)
		}
		if err := json.Unmarshal(readBy, &m.ReadBy); err != nil {
			return nil, fmt.Errorf("unmarshaling read state for %s: %w", m.ID, err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return msgs, nil
}

// MarkRead flags every message in the room as read by the given role. Read
// state is the only mutation a confirmed message ever sees.
func (s *messageStore) MarkRead(ctx context.Context, roomID string, reader model.Role) error {
	flag, err := json.Marshal(map[model.Role]bool{reader: true})
	if err != nil {
		return fmt.Errorf("marshaling read flag: %w", err)
	}

	_, err = s.db.Pool().Exec(ctx, `
		UPDATE messages SET read_by = read_by || $2::jsonb WHERE room_id = $1`,
		roomID, flag,
	)
	if err != nil {
		return fmt.Errorf("marking room %s read: %w", roomID, err)
	}
	return nil
}
