package service

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotParticipant   = errors.New("not a room participant")
	ErrSessionClosed    = errors.New("session is closed")
	ErrFeedbackRequired = errors.New("feedback text is required")
	ErrProducerOnly     = errors.New("only the producer can request review")
	ErrConsumerOnly     = errors.New("only the consumer can respond to a review")
)
