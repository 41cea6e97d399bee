package dto

import (
	"time"

	"proofroom.app/engine/internal/model"
)

type AttachmentDTO struct {
	Name     string `json:"name" binding:"required,max=255"`
	URL      string `json:"url" binding:"required,url,max=2048"`
	MimeType string `json:"mime_type" binding:"omitempty,max=128"`
}

type PostMessageRequest struct {
	SenderID    string          `json:"sender_id" binding:"required,max=64"`
	Type        string          `json:"type" binding:"required,oneof=text file review_request review_response"`
	Body        string          `json:"body" binding:"max=16384"`
	Attachments []AttachmentDTO `json:"attachments,omitempty" binding:"omitempty,dive"`
	LocalID     string          `json:"local_id,omitempty" binding:"omitempty,max=64"`
}

type MessageResponse struct {
	ID          string          `json:"id"`
	LocalID     string          `json:"local_id,omitempty"`
	RoomID      string          `json:"room_id"`
	SenderID    string          `json:"sender_id"`
	SenderRole  string          `json:"sender_role"`
	Type        string          `json:"type"`
	Body        string          `json:"body"`
	Attachments []AttachmentDTO `json:"attachments,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ReadBy      map[string]bool `json:"read_by,omitempty"`
}

func ToMessageResponse(m *model.Message) *MessageResponse {
	resp := &MessageResponse{
		ID:         m.ID,
		LocalID:    m.LocalID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderRole: string(m.SenderRole),
		Type:       string(m.Type),
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
	for _, a := range m.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentDTO{Name: a.Name, URL: a.URL, MimeType: a.MimeType})
	}
	if len(m.ReadBy) > 0 {
		resp.ReadBy = make(map[string]bool, len(m.ReadBy))
		for role, read := range m.ReadBy {
			resp.ReadBy[string(role)] = read
		}
	}
	return resp
}

func ToAttachments(dtos []AttachmentDTO) []model.Attachment {
	if len(dtos) == 0 {
		return nil
	}
	out := make([]model.Attachment, len(dtos))
	for i, a := range dtos {
		out[i] = model.Attachment{Name: a.Name, URL: a.URL, MimeType: a.MimeType}
	}
	return out
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type MarkReadRequest struct {
	ParticipantID string `json:"participant_id" binding:"required,max=64"`
}

type ReviewOutcomeDTO struct {
	Responded  bool      `json:"responded"`
	Action     string    `json:"action,omitempty"`
	ResponseID string    `json:"response_id,omitempty"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
	TimedOut   bool      `json:"timed_out,omitempty"`
}

type ReviewStateResponse struct {
	Requests map[string]ReviewOutcomeDTO `json:"requests"`
}

func ToReviewStateResponse(state map[string]model.ReviewOutcome) ReviewStateResponse {
	resp := ReviewStateResponse{Requests: make(map[string]ReviewOutcomeDTO, len(state))}
	for id, out := range state {
		resp.Requests[id] = ReviewOutcomeDTO{
			Responded:  out.Responded,
			Action:     string(out.Action),
			ResponseID: out.ResponseID,
			ResolvedAt: out.ResolvedAt,
			TimedOut:   out.TimedOut,
		}
	}
	return resp
}

type UploadAttachmentResponse struct {
	Attachment AttachmentDTO `json:"attachment"`
}
