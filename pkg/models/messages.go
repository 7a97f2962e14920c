package models

// SendResponse is returned by POST /{phone_number_id}/messages
type SendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID            string `json:"id"`
		MessageStatus string `json:"message_status,omitempty"`
	} `json:"messages"`
}

// MessageID returns the first message id, or "" when none was returned
func (r SendResponse) MessageID() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

// ErrorResponse is the Graph API error envelope
type ErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode,omitempty"`
		ErrorUserTitle string `json:"error_user_title,omitempty"`
		ErrorUserMsg   string `json:"error_user_msg,omitempty"`
		FbtraceID      string `json:"fbtrace_id,omitempty"`
	} `json:"error"`
}
