package domain

type ButtonType string

const (
	ButtonQuickReply  ButtonType = "QUICK_REPLY"
	ButtonURL         ButtonType = "URL"
	ButtonPhoneNumber ButtonType = "PHONE_NUMBER"
	ButtonCopyCode    ButtonType = "COPY_CODE"
	ButtonFlow        ButtonType = "FLOW"
)

func (t ButtonType) Valid() bool {
	switch t {
	case ButtonQuickReply, ButtonURL, ButtonPhoneNumber, ButtonCopyCode, ButtonFlow:
		return true
	}
	return false
}

// ButtonAction is the type-specific half of a button. Exactly one of the
// concrete action types below implements it, so a button can only carry the
// fields its type uses.
type ButtonAction interface {
	Type() ButtonType
	// Value returns the one field required when the button is sent.
	Value() string
}

type QuickReply struct {
	Payload string
}

func (QuickReply) Type() ButtonType { return ButtonQuickReply }
func (a QuickReply) Value() string  { return a.Payload }

type URL struct {
	URL string
}

func (URL) Type() ButtonType { return ButtonURL }
func (a URL) Value() string  { return a.URL }

type PhoneNumber struct {
	PhoneNumber string
}

func (PhoneNumber) Type() ButtonType { return ButtonPhoneNumber }
func (a PhoneNumber) Value() string  { return a.PhoneNumber }

type CopyCode struct {
	Example string
}

func (CopyCode) Type() ButtonType { return ButtonCopyCode }
func (a CopyCode) Value() string  { return a.Example }

type Flow struct {
	FlowID         string
	Token          string
	Action         string // navigate or data_exchange
	NavigateScreen string
}

func (Flow) Type() ButtonType { return ButtonFlow }
func (a Flow) Value() string  { return a.Token }

// Button is a template-definition button: a label plus its action.
type Button struct {
	Text   string
	Action ButtonAction
}

func (b Button) Type() ButtonType {
	if b.Action == nil {
		return ""
	}
	return b.Action.Type()
}

// ButtonParam is the send-time binding for the template button at Index.
type ButtonParam struct {
	Index  int
	Action ButtonAction
}

// NewButtonAction maps a stored row onto the matching action variant. Fields
// that do not belong to the type are dropped.
func NewButtonAction(t ButtonType, payload, url, phone, code, flowID, flowToken, flowAction, screen string) ButtonAction {
	switch t {
	case ButtonQuickReply:
		return QuickReply{Payload: payload}
	case ButtonURL:
		return URL{URL: url}
	case ButtonPhoneNumber:
		return PhoneNumber{PhoneNumber: phone}
	case ButtonCopyCode:
		return CopyCode{Example: code}
	case ButtonFlow:
		return Flow{FlowID: flowID, Token: flowToken, Action: flowAction, NavigateScreen: screen}
	}
	return nil
}
