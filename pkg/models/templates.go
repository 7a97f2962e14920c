package models

// TemplateList is the page returned by GET /{waba_id}/message_templates
type TemplateList struct {
	Data   []TemplateInfo `json:"data"`
	Paging *Paging        `json:"paging,omitempty"`
}

// Paging carries the cursor links of a Graph API list
type Paging struct {
	Next string `json:"next,omitempty"`
}

// TemplateInfo is a template as registered with the provider
type TemplateInfo struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Language   string              `json:"language"`
	Category   string              `json:"category"`
	Status     string              `json:"status"` // APPROVED, REJECTED, PENDING
	Components []TemplateComponent `json:"components"`
}

// TemplateComponent is one decoded entry of a template's components array
type TemplateComponent struct {
	Type    string           `json:"type"`
	Format  string           `json:"format,omitempty"`
	Text    string           `json:"text,omitempty"`
	Example *TemplateExample `json:"example,omitempty"`
	Buttons []TemplateButton `json:"buttons,omitempty"`
	Cards   []TemplateCard   `json:"cards,omitempty"`
}

type TemplateExample struct {
	BodyText     [][]string `json:"body_text,omitempty"`
	HeaderText   []string   `json:"header_text,omitempty"`
	HeaderHandle []string   `json:"header_handle,omitempty"`
}

type TemplateButton struct {
	Type           string   `json:"type"`
	Text           string   `json:"text"`
	URL            string   `json:"url,omitempty"`
	PhoneNumber    string   `json:"phone_number,omitempty"`
	Example        []string `json:"example,omitempty"`
	FlowID         any      `json:"flow_id,omitempty"` // number or string depending on API version
	FlowAction     string   `json:"flow_action,omitempty"`
	NavigateScreen string   `json:"navigate_screen,omitempty"`
}

type TemplateCard struct {
	Components []TemplateComponent `json:"components"`
}

// CreateTemplateResponse is returned when a template is submitted for review
type CreateTemplateResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Category string `json:"category"`
}
