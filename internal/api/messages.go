package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"whatsapp-notify/internal/models"
)

type MessageStore interface {
	ListMessages(ctx context.Context, recipient string, limit int) ([]models.Message, error)
	ListLogs(ctx context.Context, notificationID string, limit int) ([]models.NotificationLog, error)
}

type MessageHandler struct {
	Store MessageStore
}

func NewMessageHandler(store MessageStore) *MessageHandler {
	return &MessageHandler{Store: store}
}

// GetMessages returns recent outgoing messages, newest first
func (h *MessageHandler) GetMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.Store.ListMessages(c.Request.Context(), c.Query("recipient"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	// Return empty array instead of null
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

// GetLogs returns send attempts, optionally for one notification
func (h *MessageHandler) GetLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.Store.ListLogs(c.Request.Context(), c.Query("notification_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []models.NotificationLog{}
	}
	c.JSON(http.StatusOK, logs)
}
