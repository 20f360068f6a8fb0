package approuters

import (
	"github.com/mamoonayoob/Quick-Mart-Server/internal/configuration"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/handler"

	"github.com/gin-gonic/gin"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	messageRoute := router.Group("/qm/api/messages")
	messageRoute.Use(handler.RequireAuth(container.Verifier))
	{
		messageRoute.POST("/send", container.MessageHandler.SendMessage)
		messageRoute.GET("/conversations", container.MessageHandler.GetConversations)
		messageRoute.GET("/history/:partnerId", container.MessageHandler.GetHistory)
		messageRoute.GET("/order/:orderId", container.MessageHandler.GetMessagesByOrder)
		messageRoute.GET("/unread-count", container.MessageHandler.GetUnreadCount)
		messageRoute.PUT("/:messageId/read", container.MessageHandler.MarkRead)
		messageRoute.GET("/directory/:role", container.MessageHandler.GetDirectory)
		messageRoute.GET("/vendor/:orderId", container.MessageHandler.GetVendorByOrder)
	}
}
