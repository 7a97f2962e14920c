package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whatsapp-notify/internal/media"
	"whatsapp-notify/internal/models"
	wire "whatsapp-notify/pkg/models"
)

const maxUploadSize = 100 << 20

type MediaUploader interface {
	UploadMedia(ctx context.Context, fileData []byte, mimeType, filename string) (*wire.MediaResponse, error)
	UploadResumable(ctx context.Context, fileName, mimeType string, data []byte) (string, error)
}

type MediaStore interface {
	SaveMedia(ctx context.Context, m *models.Media) error
}

type MediaHandler struct {
	Uploader MediaUploader
	Store    MediaStore
	logger   *zap.Logger
}

func NewMediaHandler(uploader MediaUploader, store MediaStore, logger *zap.Logger) *MediaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{Uploader: uploader, Store: store, logger: logger}
}

type upload struct {
	name string
	mime string
	data []byte
}

func readUpload(c *gin.Context) (upload, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return upload{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return upload{}, false
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is empty"})
		return upload{}, false
	}
	return upload{name: header.Filename, mime: media.DetectMime(data), data: data}, true
}

// UploadMedia stores a file with the media endpoint and returns its id
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	up, ok := readUpload(c)
	if !ok {
		return
	}
	resp, err := h.Uploader.UploadMedia(c.Request.Context(), up.data, up.mime, up.name)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c.Request.Context(), &models.Media{MediaID: resp.ID, Filename: up.name, MimeType: up.mime, FileSize: int64(len(up.data))})
	c.JSON(http.StatusOK, resp)
}

// UploadResumable stores a file with the resumable upload API and returns
// the handle used in template header examples
func (h *MediaHandler) UploadResumable(c *gin.Context) {
	up, ok := readUpload(c)
	if !ok {
		return
	}
	handle, err := h.Uploader.UploadResumable(c.Request.Context(), up.name, up.mime, up.data)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c.Request.Context(), &models.Media{Handle: handle, Filename: up.name, MimeType: up.mime, FileSize: int64(len(up.data))})
	c.JSON(http.StatusOK, gin.H{"handle": handle, "mime_type": up.mime})
}

func (h *MediaHandler) record(ctx context.Context, m *models.Media) {
	if h.Store == nil {
		return
	}
	if err := h.Store.SaveMedia(ctx, m); err != nil {
		h.logger.Warn("save media record failed", zap.String("file", m.Filename), zap.Error(err))
	}
}
