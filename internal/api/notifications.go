package api

import (
	"context"
	"net/http"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/notify"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
	GetNotification(ctx context.Context, id string) (domain.Notification, error)
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
	SendTemplate(ctx context.Context, req notify.SendRequest) (notify.SendResult, error)
	Preview(ctx context.Context, req notify.SendRequest) (notify.SendResult, error)
}

type NotificationHandler struct {
	Notifications NotificationService
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{Notifications: svc}
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	list, err := h.Notifications.ListNotifications(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(list, func(idx int, n domain.Notification) NotificationRequest {
		return notificationResponse(n)
	}))
}

func (h *NotificationHandler) GetNotification(c *gin.Context) {
	n, err := h.Notifications.GetNotification(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notificationResponse(n))
}

func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.Notifications.CreateNotification(c.Request.Context(), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, notificationResponse(n))
}

// SendNotification sends the notification's template for a posted document
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	req, ok := h.bindDocument(c)
	if !ok {
		return
	}
	res, err := h.Notifications.SendTemplate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PreviewNotification returns the send components without sending
func (h *NotificationHandler) PreviewNotification(c *gin.Context) {
	req, ok := h.bindDocument(c)
	if !ok {
		return
	}
	res, err := h.Notifications.Preview(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *NotificationHandler) bindDocument(c *gin.Context) (notify.SendRequest, bool) {
	var body DocumentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return notify.SendRequest{}, false
	}
	return notify.SendRequest{
		NotificationID: c.Param("id"),
		Document:       body.source(),
		ReferenceName:  body.reference(),
		Phone:          body.Phone,
	}, true
}
