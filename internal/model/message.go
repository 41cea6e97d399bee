package model

import "time"

type Role string

const (
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
)

type MessageType string

const (
	MessageTypeText           MessageType = "text"
	MessageTypeFile           MessageType = "file"
	MessageTypeReviewRequest  MessageType = "review_request"
	MessageTypeReviewResponse MessageType = "review_response"
)

// Attachment references a blob by URL; message handling never inspects the bytes.
type Attachment struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// Message is one entry in a room's append-only log. It is immutable once the
// server has confirmed it, except for per-role read state.
//
// A message carries a two-phase identity: LocalID is assigned by the client
// that created it and is unique only on that client; ID is the canonical
// snowflake assigned by the server on append. While only LocalID is set the
// message is an optimistic record and Pending is true. The pending record and
// its canonical replacement are the same logical message and must never both
// be visible once reconciled.
type Message struct {
	ID          string        `json:"id,omitempty"`
	LocalID     string        `json:"local_id,omitempty"`
	RoomID      string        `json:"room_id"`
	SenderID    string        `json:"sender_id"`
	SenderRole  Role          `json:"sender_role"`
	Type        MessageType   `json:"type"`
	Body        string        `json:"body"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Pending     bool          `json:"pending,omitempty"`
	ReadBy      map[Role]bool `json:"read_by,omitempty"`
}

// Confirmed reports whether the server has assigned a canonical id.
func (m *Message) Confirmed() bool {
	return m.ID != "" && !m.Pending
}

// SameLogical reports whether other plausibly confirms this pending record:
// same room, sender, type and body. CreatedAt proximity is judged by the
// caller since the tolerance is configuration, not identity.
func (m *Message) SameLogical(other *Message) bool {
	return m.RoomID == other.RoomID &&
		m.SenderID == other.SenderID &&
		m.Type == other.Type &&
		m.Body == other.Body
}
