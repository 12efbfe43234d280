package controllers

import (
	"log/slog"
	"net/http"

	"speaksea/models"
	"speaksea/services"

	"github.com/gin-gonic/gin"
)

type ConversationController struct {
	orchestrator *services.Orchestrator
	logger       *slog.Logger
}

func NewConversationController(o *services.Orchestrator, logger *slog.Logger) *ConversationController {
	return &ConversationController{orchestrator: o, logger: logger}
}

// Conversation runs the full voice round: speech in, examiner speech out.
func (cc *ConversationController) Conversation(c *gin.Context) {
	var req models.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, cc.logger, bindError(err))
		return
	}

	resp, err := cc.orchestrator.Run(c.Request.Context(), &req)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TextOnly exercises the examiner script without audio.
func (cc *ConversationController) TextOnly(c *gin.Context) {
	var req models.TextTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, cc.logger, bindError(err))
		return
	}

	resp, err := cc.orchestrator.RunText(c.Request.Context(), &req)
	if err != nil {
		respondError(c, cc.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PromptsTest shows every examiner instruction rendered with sample input.
func (cc *ConversationController) PromptsTest(c *gin.Context) {
	c.JSON(http.StatusOK, services.PromptCatalog())
}
