package router

import (
	"github.com/gin-gonic/gin"

	"proofroom.app/engine/internal/http/handler"
)

func MessageRouter(router *gin.RouterGroup, messages *handler.MessageHandler, attachments *handler.AttachmentHandler) {
	router.GET("/:id/messages", messages.List)
	router.POST("/:id/messages", messages.Post)
	router.POST("/:id/read", messages.MarkRead)
	router.GET("/:id/review", messages.ReviewState)
	router.POST("/:id/attachments", attachments.Upload)
}
