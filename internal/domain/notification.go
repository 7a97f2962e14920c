package domain

import (
	"strings"

	"whatsapp-notify/internal/errs"
)

type AttachmentSource string

const (
	AttachNone          AttachmentSource = ""
	AttachDocumentPrint AttachmentSource = "document_print"
	AttachFromField     AttachmentSource = "field"
	AttachStatic        AttachmentSource = "static"
)

// Notification binds a template to a document type together with the
// values each send needs: the recipient field, body fields, header
// attachment, button parameters and carousel parameters.
type Notification struct {
	ID               string
	Name             string
	TemplateID       string
	DocumentType     string
	Enabled          bool
	PhoneField       string
	BodyFields       []string
	AttachmentSource AttachmentSource
	AttachmentField  string
	Attachment       string
	PrintFormat      string
	Filename         string
	ButtonParams     []ButtonParam
	CarouselParams   []CarouselParameter
}

func ValidateNotification(n Notification) error {
	if strings.TrimSpace(n.Name) == "" {
		return errs.Config("notification", "name", "is required")
	}
	if n.TemplateID == "" {
		return errs.Config("notification", "template_id", "is required")
	}
	switch n.AttachmentSource {
	case AttachNone:
	case AttachDocumentPrint:
		if n.DocumentType == "" {
			return errs.Config("notification", "document_type", "is required to attach a print")
		}
	case AttachFromField:
		if n.AttachmentField == "" {
			return errs.Config("notification", "attachment_field", "is required")
		}
	case AttachStatic:
		if n.Attachment == "" {
			return errs.Config("notification", "attachment", "is required")
		}
	default:
		return errs.Config("notification", "attachment_source", "unknown source %q", n.AttachmentSource)
	}
	for _, p := range n.ButtonParams {
		if err := ValidateButtonParam(p); err != nil {
			return err
		}
	}
	for i, p := range n.CarouselParams {
		if err := ValidateCarouselParameter(i, p); err != nil {
			return err
		}
	}
	return nil
}
