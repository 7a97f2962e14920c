package payload

// Wire shapes for the components array of the message_templates (creation)
// and messages (send) endpoints. Absent fields are omitted, never null.

type ComponentObj struct {
	Type       string         `json:"type"`
	Format     string         `json:"format,omitempty"`
	Text       string         `json:"text,omitempty"`
	SubType    string         `json:"sub_type,omitempty"`
	Index      string         `json:"index,omitempty"` // For buttons
	Example    *ExampleObj    `json:"example,omitempty"`
	Parameters []ParameterObj `json:"parameters,omitempty"`
	Buttons    []ButtonObj    `json:"buttons,omitempty"`
	Cards      []CardObj      `json:"cards,omitempty"`
}

type ExampleObj struct {
	BodyText     [][]string `json:"body_text,omitempty"`
	HeaderText   []string   `json:"header_text,omitempty"`
	HeaderHandle []string   `json:"header_handle,omitempty"`
}

// ButtonObj is a definition button inside a BUTTONS component.
type ButtonObj struct {
	Type           string   `json:"type"`
	Text           string   `json:"text"`
	URL            string   `json:"url,omitempty"`
	PhoneNumber    string   `json:"phone_number,omitempty"`
	Example        []string `json:"example,omitempty"`
	FlowID         string   `json:"flow_id,omitempty"`
	FlowAction     string   `json:"flow_action,omitempty"`
	NavigateScreen string   `json:"navigate_screen,omitempty"`
}

type CardObj struct {
	CardIndex  *int           `json:"card_index,omitempty"` // Send only
	Components []ComponentObj `json:"components"`
}

type ParameterObj struct {
	Type     string     `json:"type"`
	Text     string     `json:"text,omitempty"`
	Payload  string     `json:"payload,omitempty"`
	Action   *ActionObj `json:"action,omitempty"`
	Image    *MediaObj  `json:"image,omitempty"`
	Video    *MediaObj  `json:"video,omitempty"`
	Document *MediaObj  `json:"document,omitempty"`
}

type ActionObj struct {
	FlowToken string `json:"flow_token"`
}

type MediaObj struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	Filename string `json:"filename,omitempty"` // For documents
}

func textParam(s string) ParameterObj {
	return ParameterObj{Type: "text", Text: s}
}
