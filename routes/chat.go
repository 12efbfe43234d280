package routes

import (
	"speaksea/controllers"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes registers the examination endpoints under /chat.
func SetupChatRoutes(router *gin.RouterGroup, cc *controllers.ConversationController) {
	chat := router.Group("/chat")
	{
		chat.POST("/conversation", cc.Conversation)
		chat.POST("/text-only", cc.TextOnly)
		chat.GET("/prompts/test", cc.PromptsTest)
	}
}
