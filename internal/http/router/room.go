package router

import (
	"github.com/gin-gonic/gin"

	"proofroom.app/engine/internal/http/handler"
)

func RoomRouter(router *gin.RouterGroup, handler *handler.RoomHandler) {
	router.POST("", handler.Create)
	router.GET("", handler.List)
	router.GET("/:id", handler.Get)
}
