package router

import (
	"github.com/gin-gonic/gin"

	"proofroom.app/engine/internal/http/handler"
	"proofroom.app/engine/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		roomHandler := handler.NewRoomHandler(services.Rooms())
		messageHandler := handler.NewMessageHandler(services.Messages())
		attachmentHandler := handler.NewAttachmentHandler(services.Attachments())

		rooms := v1.Group("/rooms")
		RoomRouter(rooms, roomHandler)
		MessageRouter(rooms, messageHandler, attachmentHandler)
	}
}
