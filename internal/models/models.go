package models

import (
	"time"
)

// Message represents an outgoing WhatsApp message
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	WaID           string    `gorm:"index" json:"wa_id"` // provider message id
	Recipient      string    `gorm:"index;not null" json:"recipient"`
	Content        string    `gorm:"type:text" json:"content"`
	Type           string    `gorm:"type:varchar(50)" json:"type"`
	Status         string    `gorm:"type:varchar(20)" json:"status"`
	TemplateName   string    `gorm:"type:varchar(255)" json:"template_name"`
	NotificationID string    `gorm:"index" json:"notification_id,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Contact represents a WhatsApp contact
type Contact struct {
	WaID      string    `gorm:"primaryKey" json:"wa_id"` // WhatsApp ID (phone number)
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Tags      string    `gorm:"type:text" json:"tags"` // Comma separated tags
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Template represents a WhatsApp message template definition
type Template struct {
	ID           string           `gorm:"primaryKey" json:"id"`
	Name         string           `gorm:"type:varchar(255);not null" json:"name"`
	ActualName   string           `gorm:"type:varchar(255);uniqueIndex" json:"actual_name"`
	Language     string           `gorm:"type:varchar(50)" json:"language"`
	Category     string           `gorm:"type:varchar(100)" json:"category"`
	TemplateType string           `gorm:"type:varchar(20);default:Template" json:"template_type"`
	Body         string           `gorm:"type:text" json:"body"`
	SampleValues string           `gorm:"type:text" json:"sample_values"`
	HeaderType   string           `gorm:"type:varchar(20)" json:"header_type"`
	HeaderText   string           `gorm:"type:text" json:"header_text"`
	HeaderSample string           `gorm:"type:text" json:"header_sample"`
	HeaderHandle string           `gorm:"type:text" json:"header_handle"`
	Footer       string           `gorm:"type:text" json:"footer"`
	Status       string           `gorm:"type:varchar(50)" json:"status"`
	ProviderID   string           `gorm:"type:varchar(100);index" json:"provider_id"`
	Buttons      []TemplateButton `gorm:"foreignKey:TemplateID" json:"buttons"`
	Cards        []CarouselCard   `gorm:"foreignKey:TemplateID" json:"cards"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// TemplateButton is a definition button of a template or of a carousel card.
// Exactly one of TemplateID and CardID is set.
type TemplateButton struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	TemplateID     string `gorm:"index" json:"template_id,omitempty"`
	CardID         string `gorm:"index" json:"card_id,omitempty"`
	Idx            int    `json:"idx"`
	Type           string `gorm:"type:varchar(20);not null" json:"type"`
	Text           string `gorm:"type:varchar(255)" json:"text"`
	Payload        string `gorm:"type:text" json:"payload,omitempty"`
	URL            string `gorm:"type:text" json:"url,omitempty"`
	PhoneNumber    string `gorm:"type:varchar(50)" json:"phone_number,omitempty"`
	CopyCode       string `gorm:"type:varchar(255)" json:"copy_code,omitempty"`
	FlowID         string `gorm:"type:varchar(100)" json:"flow_id,omitempty"`
	FlowAction     string `gorm:"type:varchar(50)" json:"flow_action,omitempty"`
	NavigateScreen string `gorm:"type:varchar(100)" json:"navigate_screen,omitempty"`
}

func (TemplateButton) TableName() string {
	return "template_buttons"
}

// CarouselCard is one card of a carousel template
type CarouselCard struct {
	ID             string           `gorm:"primaryKey" json:"id"`
	TemplateID     string           `gorm:"index;not null" json:"template_id"`
	CardIndex      int              `json:"card_index"`
	HeaderType     string           `gorm:"type:varchar(20)" json:"header_type"`
	HeaderText     string           `gorm:"type:varchar(255)" json:"header_text"`
	HeaderContent  string           `gorm:"type:text" json:"header_content"`
	Body           string           `gorm:"type:text" json:"body"`
	WhatsAppHandle string           `gorm:"column:whatsapp_handle;type:text" json:"whatsapp_handle"`
	Buttons        []TemplateButton `gorm:"foreignKey:CardID" json:"buttons"`
}

func (CarouselCard) TableName() string {
	return "carousel_cards"
}

// Notification binds a template to a document type and its send-time values
type Notification struct {
	ID               string                      `gorm:"primaryKey" json:"id"`
	Name             string                      `gorm:"type:varchar(255);not null" json:"name"`
	TemplateID       string                      `gorm:"index;not null" json:"template_id"`
	DocumentType     string                      `gorm:"type:varchar(255)" json:"document_type"`
	Enabled          bool                        `json:"enabled"`
	PhoneField       string                      `gorm:"type:varchar(255)" json:"phone_field"`
	BodyFields       []string                    `gorm:"serializer:json" json:"body_fields"`
	AttachmentSource string                      `gorm:"type:varchar(30)" json:"attachment_source"`
	AttachmentField  string                      `gorm:"type:varchar(255)" json:"attachment_field"`
	Attachment       string                      `gorm:"type:text" json:"attachment"`
	PrintFormat      string                      `gorm:"type:varchar(255)" json:"print_format"`
	Filename         string                      `gorm:"type:varchar(255)" json:"filename"`
	ButtonParams     []NotificationButtonParam   `gorm:"foreignKey:NotificationID" json:"button_params"`
	CarouselParams   []NotificationCarouselParam `gorm:"foreignKey:NotificationID" json:"carousel_params"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationButtonParam holds the send-time value of one template button
type NotificationButtonParam struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	NotificationID string `gorm:"index;not null" json:"notification_id"`
	Idx            int    `json:"idx"`
	Type           string `gorm:"type:varchar(20);not null" json:"type"`
	Payload        string `gorm:"type:text" json:"payload,omitempty"`
	URL            string `gorm:"type:text" json:"url,omitempty"`
	PhoneNumber    string `gorm:"type:varchar(50)" json:"phone_number,omitempty"`
	CopyCode       string `gorm:"type:varchar(255)" json:"copy_code,omitempty"`
	FlowID         string `gorm:"type:varchar(100)" json:"flow_id,omitempty"`
	FlowToken      string `gorm:"type:varchar(255)" json:"flow_token,omitempty"`
	FlowAction     string `gorm:"type:varchar(50)" json:"flow_action,omitempty"`
	NavigateScreen string `gorm:"type:varchar(100)" json:"navigate_screen,omitempty"`
}

func (NotificationButtonParam) TableName() string {
	return "notification_button_params"
}

// NotificationCarouselParam binds a carousel marker to a document field
type NotificationCarouselParam struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	NotificationID string `gorm:"index;not null" json:"notification_id"`
	Idx            int    `json:"idx"`
	Kind           string `gorm:"type:varchar(20);not null" json:"kind"` // body_variable, card_header, card_body
	Variable       string `gorm:"type:varchar(20);not null" json:"variable"`
	CardIndex      *int   `json:"card_index,omitempty"`
	FieldName      string `gorm:"type:varchar(255)" json:"field_name"`
	DefaultValue   string `gorm:"type:text" json:"default_value"`
}

func (NotificationCarouselParam) TableName() string {
	return "notification_carousel_params"
}

// NotificationLog records every send attempt with the payload that was built
type NotificationLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	NotificationID string    `gorm:"index" json:"notification_id"`
	TemplateName   string    `gorm:"type:varchar(255)" json:"template_name"`
	Recipient      string    `gorm:"type:varchar(50)" json:"recipient"`
	ReferenceName  string    `gorm:"type:varchar(255)" json:"reference_name"`
	Payload        string    `gorm:"type:text" json:"payload"`
	Response       string    `gorm:"type:text" json:"response"`
	Status         string    `gorm:"type:varchar(20)" json:"status"` // success, failed
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}

// Media represents an uploaded media file
type Media struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MediaID    string    `gorm:"type:varchar(255)" json:"media_id,omitempty"` // id from the media endpoint
	Handle     string    `gorm:"type:text" json:"handle,omitempty"`           // handle from the resumable upload endpoint
	Filename   string    `gorm:"type:varchar(255)" json:"filename"`
	MimeType   string    `gorm:"type:varchar(100)" json:"mime_type"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (Media) TableName() string {
	return "media"
}

// SystemSetting stores provider credentials that override the environment
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

// All lists every table for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Message{},
		&Contact{},
		&Template{},
		&TemplateButton{},
		&CarouselCard{},
		&Notification{},
		&NotificationButtonParam{},
		&NotificationCarouselParam{},
		&NotificationLog{},
		&Media{},
		&SystemSetting{},
	}
}
