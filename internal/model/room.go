package model

import "time"

// Room scopes a conversation to one producer/consumer pair and one work item.
type Room struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	ProducerID string    `json:"producer_id"`
	ConsumerID string    `json:"consumer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// RoleOf maps a participant id to its role in the room, or "" for strangers.
func (r *Room) RoleOf(participantID string) Role {
	switch participantID {
	case r.ProducerID:
		return RoleProducer
	case r.ConsumerID:
		return RoleConsumer
	default:
		return ""
	}
}
