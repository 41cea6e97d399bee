package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"proofroom.app/engine/internal/http/dto"
	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/service"
)

type MessageHandler struct {
	service service.MessageService
}

func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Post(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid post message request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.service.Post(ctx, c.Param("id"), service.PostMessageParams{
		SenderID:    req.SenderID,
		Type:        model.MessageType(req.Type),
		Body:        req.Body,
		Attachments: dto.ToAttachments(req.Attachments),
		LocalID:     req.LocalID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		case errors.Is(err, service.ErrProducerOnly), errors.Is(err, service.ErrConsumerOnly):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to post message", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send message"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToMessageResponse(msg))
}

func (h *MessageHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	msgs, err := h.service.List(ctx, c.Param("id"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to list messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	resp := dto.ListMessagesResponse{Messages: make([]dto.MessageResponse, 0, len(msgs))}
	for i := range msgs {
		resp.Messages = append(resp.Messages, *dto.ToMessageResponse(&msgs[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid mark read request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.MarkRead(ctx, c.Param("id"), req.ParticipantID); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "not a room participant"})
		default:
			slog.ErrorContext(ctx, "failed to mark room read", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark room read"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) ReviewState(c *gin.Context) {
	ctx := c.Request.Context()

	state, err := h.service.ReviewState(ctx, c.Param("id"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to derive review state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to derive review state"})
		return
	}

	c.JSON(http.StatusOK, dto.ToReviewStateResponse(state))
}
