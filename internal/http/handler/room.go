package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"proofroom.app/engine/internal/http/dto"
	"proofroom.app/engine/internal/service"
)

type RoomHandler struct {
	service service.RoomService
}

func NewRoomHandler(service service.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

func (h *RoomHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid create room request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.service.CreateRoom(ctx, service.CreateRoomParams{
		Title:      req.Title,
		ProducerID: req.ProducerID,
		ConsumerID: req.ConsumerID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create room", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToRoomResponse(room))
}

func (h *RoomHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	room, err := h.service.GetRoom(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to fetch room", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch room"})
		return
	}

	c.JSON(http.StatusOK, dto.ToRoomResponse(room))
}

func (h *RoomHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	participantID := c.Query("participant_id")
	if participantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participant_id is required"})
		return
	}

	rooms, err := h.service.ListRooms(ctx, participantID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list rooms", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	resp := dto.ListRoomsResponse{Rooms: make([]dto.RoomResponse, 0, len(rooms))}
	for i := range rooms {
		resp.Rooms = append(resp.Rooms, *dto.ToRoomResponse(&rooms[i]))
	}
	c.JSON(http.StatusOK, resp)
}
