package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"whatsapp-notify/internal/config"
	"whatsapp-notify/internal/errs"
	"whatsapp-notify/internal/payload"
	"whatsapp-notify/pkg/models"
)

type Client struct {
	Config *config.Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Config: cfg,
		http:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger: logger,
	}
}

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	Text             *TextObj     `json:"text,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type TemplateObj struct {
	Name       string                 `json:"name"`
	Language   LanguageObj            `json:"language"`
	Components []payload.ComponentObj `json:"components,omitempty"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

// CreateTemplateRequest is the message_templates registration body.
type CreateTemplateRequest struct {
	Name       string                 `json:"name"`
	Language   string                 `json:"language"`
	Category   string                 `json:"category"`
	Components []payload.ComponentObj `json:"components"`
}

// APIError is a non-2xx Graph API response.
type APIError struct {
	Status    int
	Code      int
	Message   string
	UserTitle string
	UserMsg   string
	Body      string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.UserMsg != "" {
		msg = e.UserTitle + ": " + e.UserMsg
	}
	if msg == "" {
		msg = e.Body
	}
	return fmt.Sprintf("API error: %d - %s", e.Status, msg)
}

func (e *APIError) Unwrap() error {
	return errs.ErrProvider
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: string(body)}
	var envelope models.ErrorResponse
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.UserTitle = envelope.Error.ErrorUserTitle
		apiErr.UserMsg = envelope.Error.ErrorUserMsg
	}
	return apiErr
}

// --- Helper Functions ---

func (c *Client) endpoint(path string) string {
	return c.Config.GraphBase() + "/" + path
}

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode >= 400 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		c.logger.Error("graph api request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return respBody, apiErr
	}
	return respBody, nil
}

func decode[T any](raw []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &out, nil
}

// --- Messaging Methods ---

func (c *Client) SendRawMessage(ctx context.Context, msg GenericMessage) (*models.SendResponse, error) {
	raw, err := c.sendRequest(ctx, http.MethodPost, c.endpoint(c.Config.PhoneNumberID+"/messages"), msg, nil)
	if err != nil {
		return nil, err
	}
	return decode[models.SendResponse](raw)
}

// SendTemplate sends a template message with already assembled components.
func (c *Client) SendTemplate(ctx context.Context, to, name, languageCode string, components []payload.ComponentObj) (*models.SendResponse, error) {
	msg := GenericMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "template",
		Template: &TemplateObj{
			Name:       name,
			Language:   LanguageObj{Code: languageCode},
			Components: components,
		},
	}
	return c.SendRawMessage(ctx, msg)
}

// --- Template Management Methods ---

// GetTemplates follows paging until every template has been read.
func (c *Client) GetTemplates(ctx context.Context) ([]models.TemplateInfo, error) {
	next := c.endpoint(c.Config.WhatsAppBusinessAccountID + "/message_templates?limit=100")
	var all []models.TemplateInfo
	for next != "" {
		raw, err := c.sendRequest(ctx, http.MethodGet, next, nil, nil)
		if err != nil {
			return nil, err
		}
		page, err := decode[models.TemplateList](raw)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		next = ""
		if page.Paging != nil {
			next = page.Paging.Next
		}
	}
	return all, nil
}

func (c *Client) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*models.CreateTemplateResponse, error) {
	raw, err := c.sendRequest(ctx, http.MethodPost, c.endpoint(c.Config.WhatsAppBusinessAccountID+"/message_templates"), req, nil)
	if err != nil {
		return nil, err
	}
	return decode[models.CreateTemplateResponse](raw)
}

// UpdateTemplate replaces the components of a registered template.
func (c *Client) UpdateTemplate(ctx context.Context, templateID string, components []payload.ComponentObj) error {
	body := map[string]interface{}{"components": components}
	_, err := c.sendRequest(ctx, http.MethodPost, c.endpoint(templateID), body, nil)
	return err
}

func (c *Client) DeleteTemplate(ctx context.Context, templateName string) error {
	u := c.endpoint(c.Config.WhatsAppBusinessAccountID + "/message_templates?name=" + url.QueryEscape(templateName))
	_, err := c.sendRequest(ctx, http.MethodDelete, u, nil, nil)
	return err
}

// --- Media Methods ---

func (c *Client) UploadMedia(ctx context.Context, fileData []byte, mimeType, filename string) (*models.MediaResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.Wrap(err, "create form file")
	}
	if _, err := part.Write(fileData); err != nil {
		return nil, errors.Wrap(err, "write form file")
	}
	_ = writer.WriteField("messaging_product", "whatsapp")
	_ = writer.WriteField("type", mimeType)
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.Config.PhoneNumberID+"/media"), body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decode[models.MediaResponse](raw)
}

// UploadResumable stores a file through the resumable upload API and returns
// the asset handle used in template header examples.
func (c *Client) UploadResumable(ctx context.Context, fileName, mimeType string, data []byte) (string, error) {
	if c.Config.AppID == "" {
		return "", errors.New("WHATSAPP_APP_ID is not configured")
	}

	q := url.Values{}
	q.Set("file_name", fileName)
	q.Set("file_length", strconv.Itoa(len(data)))
	q.Set("file_type", mimeType)
	raw, err := c.sendRequest(ctx, http.MethodPost, c.endpoint(c.Config.AppID+"/uploads?"+q.Encode()), nil, nil)
	if err != nil {
		return "", errors.Wrap(err, "open upload session")
	}
	session, err := decode[models.UploadSession](raw)
	if err != nil {
		return "", err
	}
	if session.ID == "" {
		return "", errors.New("upload session id missing from response")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(session.ID), bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "build upload request")
	}
	req.Header.Set("Authorization", "OAuth "+c.Config.WhatsAppToken)
	req.Header.Set("file_offset", "0")
	req.Header.Set("Content-Type", mimeType)

	raw, err = c.do(req)
	if err != nil {
		return "", errors.Wrap(err, "upload file bytes")
	}
	handle, err := decode[models.UploadHandle](raw)
	if err != nil {
		return "", err
	}
	if handle.H == "" {
		return "", errors.New("upload handle missing from response")
	}
	c.logger.Info("media uploaded", zap.String("file", fileName), zap.Int("bytes", len(data)))
	return handle.H, nil
}
