package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillloop/skillloop-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (ch *ChatHandler) SendMessage(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	reply, err := ch.chatService.SendMessage(c.Request.Context(), req)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "chat_failed", err)
		return
	}
	RespondOK(c, reply)
}

func (ch *ChatHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sessionID")
	turns, err := ch.chatService.GetHistory(c.Request.Context(), sessionID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "history_failed", err)
		return
	}
	RespondOK(c, gin.H{"session_id": sessionID, "turns": turns})
}

func (ch *ChatHandler) ListHistory(c *gin.Context) {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	turns, err := ch.chatService.ListHistory(c.Request.Context(), offset, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	RespondOK(c, gin.H{"turns": turns})
}

func (ch *ChatHandler) ListSessions(c *gin.Context) {
	sessions, err := ch.chatService.ListSessions(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "sessions_failed", err)
		return
	}
	RespondOK(c, gin.H{"sessions": sessions})
}

func (ch *ChatHandler) DeleteSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := ch.chatService.DeleteSession(c.Request.Context(), sessionID); err != nil {
		RespondError(c, http.StatusBadRequest, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": sessionID})
}

func (ch *ChatHandler) DeleteTurn(c *gin.Context) {
	turnID, err := uuid.Parse(c.Param("turnID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid turn id"))
		return
	}
	if err := ch.chatService.DeleteTurn(c.Request.Context(), turnID); err != nil {
		RespondError(c, http.StatusNotFound, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": turnID})
}
