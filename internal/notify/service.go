package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/errs"
	"whatsapp-notify/internal/metrics"
	"whatsapp-notify/internal/models"
	"whatsapp-notify/internal/payload"
	"whatsapp-notify/internal/ws"
	wire "whatsapp-notify/pkg/models"
)

const defaultPrintFormat = "Standard"

type Sender interface {
	SendTemplate(ctx context.Context, to, name, languageCode string, components []payload.ComponentObj) (*wire.SendResponse, error)
}

type TemplateStore interface {
	Get(ctx context.Context, id string) (domain.Template, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	Get(ctx context.Context, id string) (domain.Notification, error)
	List(ctx context.Context) ([]domain.Notification, error)
}

type MessageLog interface {
	SaveMessage(ctx context.Context, m *models.Message) error
	SaveLog(ctx context.Context, l *models.NotificationLog) error
	ContactNumbers(ctx context.Context, tag string) ([]string, error)
}

type Broadcaster interface {
	BroadcastEvent(eventType string, data interface{})
}

// Service sends template messages for configured notifications.
type Service struct {
	notifications NotificationStore
	templates     TemplateStore
	messages      MessageLog
	sender        Sender
	builder       *payload.Builder
	events        Broadcaster
	siteURL       string
	logger        *zap.Logger
}

func NewService(notifications NotificationStore, templates TemplateStore, messages MessageLog, sender Sender,
	builder *payload.Builder, events Broadcaster, siteURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		notifications: notifications,
		templates:     templates,
		messages:      messages,
		sender:        sender,
		builder:       builder,
		events:        events,
		siteURL:       strings.TrimRight(siteURL, "/"),
		logger:        logger,
	}
}

// CreateNotification validates n against its template and stores it. Flow
// buttons without a token get a generated one.
func (s *Service) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n.ButtonParams = withFlowTokens(n.ButtonParams)
	if err := domain.ValidateNotification(n); err != nil {
		return domain.Notification{}, err
	}
	if _, err := s.templates.Get(ctx, n.TemplateID); err != nil {
		return domain.Notification{}, err
	}
	return s.notifications.Create(ctx, n)
}

// withFlowTokens returns params with a generated token on every flow button
// that has none.
func withFlowTokens(params []domain.ButtonParam) []domain.ButtonParam {
	if len(params) == 0 {
		return params
	}
	out := append([]domain.ButtonParam(nil), params...)
	for i, p := range out {
		if f, ok := p.Action.(domain.Flow); ok && f.Token == "" {
			f.Token = uuid.NewString()
			out[i].Action = f
		}
	}
	return out
}

func (s *Service) GetNotification(ctx context.Context, id string) (domain.Notification, error) {
	return s.notifications.Get(ctx, id)
}

func (s *Service) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	return s.notifications.List(ctx)
}

// SendRequest is one document-triggered send.
type SendRequest struct {
	NotificationID string
	Document       payload.Source
	// ReferenceName identifies the document in logs and print links.
	ReferenceName string
	// Phone overrides the notification's phone field.
	Phone string
}

type SendResult struct {
	MessageID  string                 `json:"message_id"`
	Recipient  string                 `json:"recipient"`
	Template   string                 `json:"template"`
	Components []payload.ComponentObj `json:"components"`
}

// Preview builds the send components for a document without sending.
func (s *Service) Preview(ctx context.Context, req SendRequest) (SendResult, error) {
	n, tmpl, err := s.load(ctx, req.NotificationID)
	if err != nil {
		return SendResult{}, err
	}
	components, err := s.builder.BuildTemplateComponents(ctx, tmpl, s.sendContext(n, req), payload.Send)
	if err != nil {
		return SendResult{}, err
	}
	phone, _ := s.recipient(n, req)
	return SendResult{Recipient: phone, Template: tmpl.ProviderName(), Components: components}, nil
}

// SendTemplate builds and sends the notification's template for one
// document. Every attempt that reaches the provider is logged.
func (s *Service) SendTemplate(ctx context.Context, req SendRequest) (SendResult, error) {
	n, tmpl, err := s.load(ctx, req.NotificationID)
	if err != nil {
		return SendResult{}, err
	}
	if !n.Enabled {
		return SendResult{}, fmt.Errorf("%w: %s", errs.ErrNotificationDisabled, n.Name)
	}
	phone, err := s.recipient(n, req)
	if err != nil {
		return SendResult{}, err
	}
	components, err := s.builder.BuildTemplateComponents(ctx, tmpl, s.sendContext(n, req), payload.Send)
	if err != nil {
		return SendResult{}, err
	}

	res := SendResult{Recipient: phone, Template: tmpl.ProviderName(), Components: components}
	id, err := s.deliver(ctx, tmpl, phone, components, n.ID, req.ReferenceName)
	res.MessageID = id
	return res, err
}

// SimpleRequest sends a template to a contact list without a document.
type SimpleRequest struct {
	TemplateID   string
	Numbers      []string
	Tag          string
	ButtonParams []domain.ButtonParam
}

type SimpleResult struct {
	Sent   int               `json:"sent"`
	Failed int               `json:"failed"`
	Errors map[string]string `json:"errors,omitempty"`
}

// SendSimple sends a template to every listed number, or to every contact
// carrying Tag when no numbers are given. Only button values are bound;
// carousel templates go out without components.
func (s *Service) SendSimple(ctx context.Context, req SimpleRequest) (SimpleResult, error) {
	tmpl, err := s.templates.Get(ctx, req.TemplateID)
	if err != nil {
		return SimpleResult{}, err
	}
	numbers := req.Numbers
	if len(numbers) == 0 {
		if numbers, err = s.messages.ContactNumbers(ctx, req.Tag); err != nil {
			return SimpleResult{}, err
		}
	}

	var components []payload.ComponentObj
	if !tmpl.IsCarousel() && len(tmpl.Buttons) > 0 {
		if components, err = s.simpleButtons(tmpl, withFlowTokens(req.ButtonParams)); err != nil {
			return SimpleResult{}, err
		}
	}

	res := SimpleResult{}
	for _, number := range numbers {
		phone := formatNumber(number)
		if phone == "" {
			continue
		}
		if _, err := s.deliver(ctx, tmpl, phone, components, "", ""); err != nil {
			res.Failed++
			if res.Errors == nil {
				res.Errors = map[string]string{}
			}
			res.Errors[phone] = err.Error()
			continue
		}
		res.Sent++
	}
	return res, nil
}

func (s *Service) simpleButtons(tmpl domain.Template, params []domain.ButtonParam) ([]payload.ComponentObj, error) {
	checked, err := s.builder.CheckButtonParams(tmpl, params)
	if err != nil {
		return nil, err
	}
	out := make([]payload.ComponentObj, 0, len(checked))
	for _, p := range checked {
		c := s.builder.SendButton(p.Index, p.Action, nil)
		if c == nil {
			return nil, errs.ConfigAt("button", p.Index, "parameters", "%s value is empty", p.Action.Type())
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, notificationID string) (domain.Notification, domain.Template, error) {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return domain.Notification{}, domain.Template{}, err
	}
	tmpl, err := s.templates.Get(ctx, n.TemplateID)
	if err != nil {
		return domain.Notification{}, domain.Template{}, err
	}
	return n, tmpl, nil
}

func (s *Service) recipient(n domain.Notification, req SendRequest) (string, error) {
	phone := req.Phone
	if phone == "" && n.PhoneField != "" && req.Document != nil {
		if v, ok := req.Document.Get(n.PhoneField); ok {
			phone = payload.Display(v)
		}
	}
	if phone = formatNumber(phone); phone == "" {
		return "", errs.Config("notification", "phone_field", "no phone number in field %q", n.PhoneField)
	}
	return phone, nil
}

func (s *Service) sendContext(n domain.Notification, req SendRequest) payload.SendContext {
	sc := payload.SendContext{
		Source:         req.Document,
		BodyFields:     n.BodyFields,
		ButtonParams:   n.ButtonParams,
		CarouselParams: n.CarouselParams,
		Filename:       n.Filename,
	}
	switch n.AttachmentSource {
	case domain.AttachDocumentPrint:
		sc.Attachment = s.printLink(n, req)
		if sc.Filename == "" && req.ReferenceName != "" {
			sc.Filename = req.ReferenceName + ".pdf"
		}
	case domain.AttachFromField:
		if req.Document != nil {
			if v, ok := req.Document.Get(n.AttachmentField); ok {
				sc.Attachment = payload.Display(v)
			}
		}
	case domain.AttachStatic:
		sc.Attachment = n.Attachment
	}
	return sc
}

// printLink points at the site's PDF rendering of the document.
func (s *Service) printLink(n domain.Notification, req SendRequest) string {
	format := n.PrintFormat
	if format == "" {
		format = defaultPrintFormat
	}
	q := url.Values{}
	q.Set("doctype", n.DocumentType)
	q.Set("name", req.ReferenceName)
	q.Set("format", format)
	if sk, ok := req.Document.(payload.ShareKeySource); ok {
		if key, err := sk.ShareKey(); err == nil && key != "" {
			q.Set("key", key)
		}
	}
	return s.siteURL + "/api/method/frappe.utils.print_format.download_pdf?" + q.Encode()
}

type sentEvent struct {
	MessageID      string `json:"message_id"`
	Recipient      string `json:"recipient"`
	Template       string `json:"template"`
	NotificationID string `json:"notification_id,omitempty"`
	Status         string `json:"status"`
}

func (s *Service) deliver(ctx context.Context, tmpl domain.Template, phone string, components []payload.ComponentObj,
	notificationID, reference string) (string, error) {
	content, _ := json.Marshal(map[string]interface{}{
		"name":       tmpl.ProviderName(),
		"language":   map[string]string{"code": tmpl.Language},
		"components": components,
	})

	resp, sendErr := s.sender.SendTemplate(ctx, phone, tmpl.ProviderName(), tmpl.Language, components)

	entry := &models.NotificationLog{
		NotificationID: notificationID,
		TemplateName:   tmpl.ProviderName(),
		Recipient:      phone,
		ReferenceName:  reference,
		Payload:        string(content),
		Status:         "success",
	}
	var messageID string
	if sendErr != nil {
		entry.Status = "failed"
		entry.Error = sendErr.Error()
		metrics.RecordMessageSent("failed")
		s.logger.Error("template send failed",
			zap.String("template", tmpl.ProviderName()),
			zap.String("recipient", phone),
			zap.Error(sendErr))
	} else {
		if resp != nil {
			messageID = resp.MessageID()
			raw, _ := json.Marshal(resp)
			entry.Response = string(raw)
		}
		metrics.RecordMessageSent("sent")
	}
	if err := s.messages.SaveLog(ctx, entry); err != nil {
		s.logger.Warn("save notification log failed", zap.Error(err))
	}
	if sendErr != nil {
		return "", fmt.Errorf("send %s to %s: %w", tmpl.ProviderName(), phone, sendErr)
	}

	msg := &models.Message{
		WaID:           messageID,
		Recipient:      phone,
		Content:        string(content),
		Type:           contentType(tmpl),
		Status:         "sent",
		TemplateName:   tmpl.ProviderName(),
		NotificationID: notificationID,
	}
	if err := s.messages.SaveMessage(ctx, msg); err != nil {
		s.logger.Warn("save outgoing message failed", zap.String("message_id", messageID), zap.Error(err))
	}
	if s.events != nil {
		s.events.BroadcastEvent(ws.EventMessageSent, sentEvent{
			MessageID:      messageID,
			Recipient:      phone,
			Template:       tmpl.ProviderName(),
			NotificationID: notificationID,
			Status:         "sent",
		})
	}
	s.logger.Info("template sent", zap.String("template", tmpl.ProviderName()), zap.String("message_id", messageID))
	return messageID, nil
}

func contentType(tmpl domain.Template) string {
	if tmpl.HeaderKind.IsNone() {
		return "text"
	}
	return strings.ToLower(string(tmpl.HeaderKind))
}

func formatNumber(number string) string {
	return strings.TrimPrefix(strings.TrimSpace(number), "+")
}
