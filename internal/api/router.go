package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything mounted under /api.
type Handlers struct {
	Templates     *TemplateHandler
	Notifications *NotificationHandler
	Messages      *MessageHandler
	Media         *MediaHandler
}

// CORS allows the dashboard to call the API from another origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h Handlers) Register(r gin.IRouter) {
	apiGroup := r.Group("/api")

	if h.Templates != nil {
		apiGroup.GET("/templates", h.Templates.GetTemplates)
		apiGroup.POST("/templates", h.Templates.CreateTemplate)
		apiGroup.POST("/templates/sync", h.Templates.SyncTemplates)
		apiGroup.GET("/templates/:id", h.Templates.GetTemplate)
		apiGroup.PUT("/templates/:id", h.Templates.UpdateTemplate)
		apiGroup.DELETE("/templates/:id", h.Templates.DeleteTemplate)
		apiGroup.GET("/templates/:id/payload", h.Templates.PreviewTemplate)
		apiGroup.POST("/templates/:id/send", h.Templates.SendTemplate)
	}

	if h.Notifications != nil {
		apiGroup.GET("/notifications", h.Notifications.GetNotifications)
		apiGroup.POST("/notifications", h.Notifications.CreateNotification)
		apiGroup.GET("/notifications/:id", h.Notifications.GetNotification)
		apiGroup.POST("/notifications/:id/send", h.Notifications.SendNotification)
		apiGroup.POST("/notifications/:id/preview", h.Notifications.PreviewNotification)
	}

	if h.Messages != nil {
		apiGroup.GET("/messages", h.Messages.GetMessages)
		apiGroup.GET("/logs", h.Messages.GetLogs)
	}

	if h.Media != nil {
		whatsappGroup := apiGroup.Group("/whatsapp")
		whatsappGroup.POST("/media", h.Media.UploadMedia)
		whatsappGroup.POST("/uploads", h.Media.UploadResumable)
	}
}
