package api

import (
	"context"
	"net/http"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/notify"
	"whatsapp-notify/internal/payload"
	"whatsapp-notify/internal/templates"
)

type TemplateService interface {
	Register(ctx context.Context, t domain.Template) (domain.Template, error)
	Update(ctx context.Context, t domain.Template) (domain.Template, error)
	Remove(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	Preview(ctx context.Context, id string) ([]payload.ComponentObj, error)
	Sync(ctx context.Context) (templates.SyncResult, error)
}

type SimpleSender interface {
	SendSimple(ctx context.Context, req notify.SimpleRequest) (notify.SimpleResult, error)
}

type TemplateHandler struct {
	Templates TemplateService
	Sender    SimpleSender
}

func NewTemplateHandler(svc TemplateService, sender SimpleSender) *TemplateHandler {
	return &TemplateHandler{Templates: svc, Sender: sender}
}

// GetTemplates lists the locally stored templates
func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	list, err := h.Templates.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slice.Map(list, func(idx int, t domain.Template) TemplateRequest {
		return templateResponse(t)
	}))
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	t, err := h.Templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templateResponse(t))
}

// CreateTemplate stores a template and submits it for review
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = ""
	t, err := h.Templates.Register(c.Request.Context(), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, templateResponse(t))
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = c.Param("id")
	t, err := h.Templates.Update(c.Request.Context(), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templateResponse(t))
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.Templates.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Template deleted"})
}

// PreviewTemplate returns the registration components without submitting them
func (h *TemplateHandler) PreviewTemplate(c *gin.Context) {
	components, err := h.Templates.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"components": components})
}

// SyncTemplates pulls the provider's templates into the local store
func (h *TemplateHandler) SyncTemplates(c *gin.Context) {
	res, err := h.Templates.Sync(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SendTemplate sends a template to a list of numbers or a contact tag
func (h *TemplateHandler) SendTemplate(c *gin.Context) {
	var req SimpleSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Sender.SendSimple(c.Request.Context(), notify.SimpleRequest{
		TemplateID: c.Param("id"),
		Numbers:    req.Numbers,
		Tag:        req.Tag,
		ButtonParams: slice.Map(req.ButtonParams, func(idx int, p ButtonParamRequest) domain.ButtonParam {
			return domain.ButtonParam{Index: p.Index, Action: p.action()}
		}),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
