package dto

import (
	"time"

	"proofroom.app/engine/internal/model"
)

type CreateRoomRequest struct {
	Title      string `json:"title" binding:"required,min=1,max=255"`
	ProducerID string `json:"producer_id" binding:"required,max=64"`
	ConsumerID string `json:"consumer_id" binding:"required,max=64"`
}

type RoomResponse struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	ProducerID string    `json:"producer_id"`
	ConsumerID string    `json:"consumer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToRoomResponse(r *model.Room) *RoomResponse {
	return &RoomResponse{
		ID:         r.ID,
		Slug:       r.Slug,
		Title:      r.Title,
		ProducerID: r.ProducerID,
		ConsumerID: r.ConsumerID,
		CreatedAt:  r.CreatedAt,
	}
}

type ListRoomsResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}
