package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"proofroom.app/engine/internal/http/dto"
	"proofroom.app/engine/internal/service"
)

// maxAttachmentSize caps a single upload at 32 MiB.
const maxAttachmentSize = 32 << 20

type AttachmentHandler struct {
	service service.AttachmentService
}

func NewAttachmentHandler(service service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

func (h *AttachmentHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		slog.WarnContext(ctx, "invalid attachment upload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "attachment too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		slog.ErrorContext(ctx, "failed to open uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read attachment"})
		return
	}
	defer f.Close()

	att, err := h.service.Upload(ctx, c.Param("id"), fileHeader.Filename, f, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		slog.ErrorContext(ctx, "failed to store attachment", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to store attachment"})
		return
	}

	c.JSON(http.StatusCreated, dto.UploadAttachmentResponse{
		Attachment: dto.AttachmentDTO{Name: att.Name, URL: att.URL, MimeType: att.MimeType},
	})
}
