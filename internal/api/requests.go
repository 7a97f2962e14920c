package api

import (
	"github.com/ecodeclub/ekit/slice"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/payload"
)

// ButtonRequest is a button in API requests and responses. Only the fields
// of its type are used.
type ButtonRequest struct {
	Type           string `json:"type"`
	Text           string `json:"text,omitempty"`
	Payload        string `json:"payload,omitempty"`
	URL            string `json:"url,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	CopyCode       string `json:"copy_code,omitempty"`
	FlowID         string `json:"flow_id,omitempty"`
	FlowToken      string `json:"flow_token,omitempty"`
	FlowAction     string `json:"flow_action,omitempty"`
	NavigateScreen string `json:"navigate_screen,omitempty"`
}

func (b ButtonRequest) action() domain.ButtonAction {
	return domain.NewButtonAction(domain.ButtonType(b.Type),
		b.Payload, b.URL, b.PhoneNumber, b.CopyCode, b.FlowID, b.FlowToken, b.FlowAction, b.NavigateScreen)
}

func buttonRequest(text string, a domain.ButtonAction) ButtonRequest {
	out := ButtonRequest{Text: text}
	if a == nil {
		return out
	}
	out.Type = string(a.Type())
	switch v := a.(type) {
	case domain.QuickReply:
		out.Payload = v.Payload
	case domain.URL:
		out.URL = v.URL
	case domain.PhoneNumber:
		out.PhoneNumber = v.PhoneNumber
	case domain.CopyCode:
		out.CopyCode = v.Example
	case domain.Flow:
		out.FlowID = v.FlowID
		out.FlowToken = v.Token
		out.FlowAction = v.Action
		out.NavigateScreen = v.NavigateScreen
	}
	return out
}

type CardRequest struct {
	ID            string          `json:"id,omitempty"`
	CardIndex     int             `json:"card_index"`
	HeaderType    string          `json:"header_type"`
	HeaderText    string          `json:"header_text,omitempty"`
	HeaderContent string          `json:"header_content,omitempty"`
	Body          string          `json:"body"`
	Buttons       []ButtonRequest `json:"buttons,omitempty"`
	Handle        string          `json:"whatsapp_handle,omitempty"`
}

// TemplateRequest is the JSON shape of a template definition.
type TemplateRequest struct {
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name" binding:"required"`
	ActualName   string          `json:"actual_name,omitempty"`
	Language     string          `json:"language"`
	Category     string          `json:"category"`
	TemplateType string          `json:"template_type"`
	Body         string          `json:"body"`
	SampleValues string          `json:"sample_values,omitempty"`
	HeaderType   string          `json:"header_type,omitempty"`
	HeaderText   string          `json:"header_text,omitempty"`
	HeaderSample string          `json:"header_sample,omitempty"`
	HeaderHandle string          `json:"header_handle,omitempty"`
	Footer       string          `json:"footer,omitempty"`
	Buttons      []ButtonRequest `json:"buttons,omitempty"`
	Cards        []CardRequest   `json:"cards,omitempty"`
	Status       string          `json:"status,omitempty"`
	ProviderID   string          `json:"provider_id,omitempty"`
}

func (r TemplateRequest) toDomain() domain.Template {
	t := domain.Template{
		ID:           r.ID,
		Name:         r.Name,
		Language:     r.Language,
		Category:     r.Category,
		Type:         domain.TemplateType(r.TemplateType),
		Body:         r.Body,
		SampleValues: r.SampleValues,
		HeaderKind:   domain.HeaderKind(r.HeaderType),
		HeaderText:   r.HeaderText,
		HeaderSample: r.HeaderSample,
		HeaderHandle: r.HeaderHandle,
		Footer:       r.Footer,
		Buttons:      toButtons(r.Buttons),
	}
	if t.Type == "" {
		t.Type = domain.TemplateStandard
	}
	if len(r.Cards) > 0 {
		t.Cards = slice.Map(r.Cards, func(idx int, c CardRequest) domain.Card {
			return domain.Card{
				ID:            c.ID,
				Index:         c.CardIndex,
				HeaderKind:    domain.HeaderKind(c.HeaderType),
				HeaderText:    c.HeaderText,
				HeaderContent: c.HeaderContent,
				Body:          c.Body,
				Buttons:       toButtons(c.Buttons),
				Handle:        c.Handle,
			}
		})
	}
	return t
}

func toButtons(in []ButtonRequest) []domain.Button {
	if len(in) == 0 {
		return nil
	}
	return slice.Map(in, func(idx int, b ButtonRequest) domain.Button {
		return domain.Button{Text: b.Text, Action: b.action()}
	})
}

func fromButtons(in []domain.Button) []ButtonRequest {
	return slice.Map(in, func(idx int, b domain.Button) ButtonRequest {
		return buttonRequest(b.Text, b.Action)
	})
}

func templateResponse(t domain.Template) TemplateRequest {
	return TemplateRequest{
		ID:           t.ID,
		Name:         t.Name,
		ActualName:   t.ActualName,
		Language:     t.Language,
		Category:     t.Category,
		TemplateType: string(t.Type),
		Body:         t.Body,
		SampleValues: t.SampleValues,
		HeaderType:   string(t.HeaderKind),
		HeaderText:   t.HeaderText,
		HeaderSample: t.HeaderSample,
		HeaderHandle: t.HeaderHandle,
		Footer:       t.Footer,
		Buttons:      fromButtons(t.Buttons),
		Cards: slice.Map(t.Cards, func(idx int, c domain.Card) CardRequest {
			return CardRequest{
				ID:            c.ID,
				CardIndex:     c.Index,
				HeaderType:    string(c.HeaderKind),
				HeaderText:    c.HeaderText,
				HeaderContent: c.HeaderContent,
				Body:          c.Body,
				Buttons:       fromButtons(c.Buttons),
				Handle:        c.Handle,
			}
		}),
		Status:     string(t.Status),
		ProviderID: t.ProviderID,
	}
}

type ButtonParamRequest struct {
	Index int `json:"index"`
	ButtonRequest
}

type CarouselParamRequest struct {
	Kind      string `json:"kind"`
	Variable  string `json:"variable"`
	CardIndex *int   `json:"card_index,omitempty"`
	FieldName string `json:"field_name,omitempty"`
	Default   string `json:"default,omitempty"`
}

// NotificationRequest is the JSON shape of a notification binding.
type NotificationRequest struct {
	ID               string                 `json:"id,omitempty"`
	Name             string                 `json:"name" binding:"required"`
	TemplateID       string                 `json:"template_id" binding:"required"`
	DocumentType     string                 `json:"document_type,omitempty"`
	Enabled          *bool                  `json:"enabled,omitempty"`
	PhoneField       string                 `json:"phone_field,omitempty"`
	BodyFields       []string               `json:"body_fields,omitempty"`
	AttachmentSource string                 `json:"attachment_source,omitempty"`
	AttachmentField  string                 `json:"attachment_field,omitempty"`
	Attachment       string                 `json:"attachment,omitempty"`
	PrintFormat      string                 `json:"print_format,omitempty"`
	Filename         string                 `json:"filename,omitempty"`
	ButtonParams     []ButtonParamRequest   `json:"button_params,omitempty"`
	CarouselParams   []CarouselParamRequest `json:"carousel_params,omitempty"`
}

func (r NotificationRequest) toDomain() domain.Notification {
	n := domain.Notification{
		Name:             r.Name,
		TemplateID:       r.TemplateID,
		DocumentType:     r.DocumentType,
		Enabled:          r.Enabled == nil || *r.Enabled,
		PhoneField:       r.PhoneField,
		BodyFields:       r.BodyFields,
		AttachmentSource: domain.AttachmentSource(r.AttachmentSource),
		AttachmentField:  r.AttachmentField,
		Attachment:       r.Attachment,
		PrintFormat:      r.PrintFormat,
		Filename:         r.Filename,
	}
	if len(r.ButtonParams) > 0 {
		n.ButtonParams = slice.Map(r.ButtonParams, func(idx int, p ButtonParamRequest) domain.ButtonParam {
			return domain.ButtonParam{Index: p.Index, Action: p.action()}
		})
	}
	if len(r.CarouselParams) > 0 {
		n.CarouselParams = slice.Map(r.CarouselParams, func(idx int, p CarouselParamRequest) domain.CarouselParameter {
			return domain.CarouselParameter{
				Kind:      domain.ParameterKind(p.Kind),
				Variable:  p.Variable,
				CardIndex: p.CardIndex,
				FieldName: p.FieldName,
				Default:   p.Default,
			}
		})
	}
	return n
}

func notificationResponse(n domain.Notification) NotificationRequest {
	enabled := n.Enabled
	return NotificationRequest{
		ID:               n.ID,
		Name:             n.Name,
		TemplateID:       n.TemplateID,
		DocumentType:     n.DocumentType,
		Enabled:          &enabled,
		PhoneField:       n.PhoneField,
		BodyFields:       n.BodyFields,
		AttachmentSource: string(n.AttachmentSource),
		AttachmentField:  n.AttachmentField,
		Attachment:       n.Attachment,
		PrintFormat:      n.PrintFormat,
		Filename:         n.Filename,
		ButtonParams: slice.Map(n.ButtonParams, func(idx int, p domain.ButtonParam) ButtonParamRequest {
			return ButtonParamRequest{Index: p.Index, ButtonRequest: buttonRequest("", p.Action)}
		}),
		CarouselParams: slice.Map(n.CarouselParams, func(idx int, p domain.CarouselParameter) CarouselParamRequest {
			return CarouselParamRequest{
				Kind:      string(p.Kind),
				Variable:  p.Variable,
				CardIndex: p.CardIndex,
				FieldName: p.FieldName,
				Default:   p.Default,
			}
		}),
	}
}

// DocumentRequest is a document snapshot posted for a send or a preview.
type DocumentRequest struct {
	Document      map[string]interface{} `json:"document"`
	Formatted     map[string]string      `json:"formatted,omitempty"`
	ShareKey      string                 `json:"share_key,omitempty"`
	ReferenceName string                 `json:"reference_name,omitempty"`
	Phone         string                 `json:"phone,omitempty"`
}

func (r DocumentRequest) source() payload.Document {
	return payload.Document{
		Fields:    payload.MapSource(r.Document),
		Formatted: r.Formatted,
		Key:       r.ShareKey,
	}
}

// reference defaults to the document's own name field.
func (r DocumentRequest) reference() string {
	if r.ReferenceName != "" {
		return r.ReferenceName
	}
	if name, ok := r.Document["name"].(string); ok {
		return name
	}
	return ""
}

// SimpleSendRequest sends a template to numbers or a contact tag.
type SimpleSendRequest struct {
	Numbers      []string             `json:"numbers,omitempty"`
	Tag          string               `json:"tag,omitempty"`
	ButtonParams []ButtonParamRequest `json:"button_params,omitempty"`
}
