package payload

import (
	"strconv"
	"strings"

	"whatsapp-notify/internal/domain"
)

const fallbackButtonText = "Learn More"

// CreationButton renders a definition button for template registration.
// Returns nil when the button has no action.
func (b *Builder) CreationButton(btn domain.Button, src Source) *ButtonObj {
	if btn.Action == nil {
		return nil
	}
	out := &ButtonObj{Type: string(btn.Action.Type()), Text: btn.Text}
	switch a := btn.Action.(type) {
	case domain.QuickReply:
		// payload is a send-time value only
	case domain.URL:
		out.URL = b.Resolve(a.URL, src)
		if markers := PositionalMarkers(out.URL); len(markers) > 0 {
			out.Example = sampleValues(markers)
		}
	case domain.PhoneNumber:
		out.PhoneNumber = b.Resolve(a.PhoneNumber, src)
	case domain.CopyCode:
		if code := b.Resolve(a.Example, src); code != "" {
			out.Example = []string{code}
		}
	case domain.Flow:
		out.FlowID = a.FlowID
		out.FlowAction = a.Action
		out.NavigateScreen = a.NavigateScreen
	}
	return out
}

// SendButton renders the per-recipient button component for the button at
// index. Returns nil when the type's required value is missing after
// resolution.
func (b *Builder) SendButton(index int, action domain.ButtonAction, src Source) *ComponentObj {
	if action == nil {
		return nil
	}
	value := strings.TrimSpace(b.Resolve(action.Value(), src))
	if value == "" {
		return nil
	}
	var param ParameterObj
	switch action.Type() {
	case domain.ButtonQuickReply:
		param = ParameterObj{Type: "payload", Payload: value}
	case domain.ButtonFlow:
		param = ParameterObj{Type: "action", Action: &ActionObj{FlowToken: value}}
	case domain.ButtonURL, domain.ButtonPhoneNumber, domain.ButtonCopyCode:
		param = textParam(value)
	default:
		return nil
	}
	return &ComponentObj{
		Type:       "button",
		SubType:    strings.ToLower(string(action.Type())),
		Index:      strconv.Itoa(index),
		Parameters: []ParameterObj{param},
	}
}

// fallbackButton is used for cards that declare no buttons.
func fallbackButton() ButtonObj {
	return ButtonObj{Type: string(domain.ButtonQuickReply), Text: fallbackButtonText}
}
