package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"whatsapp-notify/internal/errs"
)

var positionalVariable = regexp.MustCompile(`^\{\{\d+\}\}$`)

// ValidateTemplate checks the structural rules of a definition before it is
// registered or sent.
func ValidateTemplate(t Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return errs.Config("template", "name", "is required")
	}
	if strings.TrimSpace(t.Body) == "" {
		return errs.Config("template", "body", "is required")
	}
	switch t.Type {
	case TemplateCarousel:
		if len(t.Buttons) > 0 {
			return errs.Config("template", "buttons", "carousel templates cannot have flat buttons")
		}
		return ValidateCards(t.Cards)
	case TemplateStandard, "":
		if len(t.Cards) > 0 {
			return errs.Config("template", "cards", "cards require template type %s", TemplateCarousel)
		}
	default:
		return errs.Config("template", "type", "unknown template type %q", t.Type)
	}
	if len(t.Buttons) > MaxTemplateButtons {
		return errs.Config("template", "buttons", "maximum %d buttons allowed (got %d)", MaxTemplateButtons, len(t.Buttons))
	}
	for i, b := range t.Buttons {
		if err := ValidateDefinitionButton(i, b); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDefinitionButton is the looser definition-time check. Example
// values may still be unset, so only labels and types are enforced.
func ValidateDefinitionButton(index int, b Button) error {
	if b.Action == nil || !b.Action.Type().Valid() {
		return errs.ConfigAt("button", index, "type", "unknown button type")
	}
	if strings.TrimSpace(b.Text) == "" {
		return errs.ConfigAt("button", index, "text", "is required")
	}
	if f, ok := b.Action.(Flow); ok && strings.TrimSpace(f.FlowID) == "" {
		return errs.ConfigAt("button", index, "flow_id", "is required for %s", ButtonFlow)
	}
	return nil
}

// ValidateButtonParam enforces the one mandatory field of each send-time
// button type.
func ValidateButtonParam(p ButtonParam) error {
	if p.Action == nil {
		return errs.ConfigAt("button", p.Index, "type", "is required")
	}
	if strings.TrimSpace(p.Action.Value()) == "" {
		return errs.ConfigAt("button", p.Index, requiredField(p.Action.Type()),
			"is required for %s", p.Action.Type())
	}
	return nil
}

func requiredField(t ButtonType) string {
	switch t {
	case ButtonQuickReply:
		return "payload"
	case ButtonURL:
		return "url"
	case ButtonPhoneNumber:
		return "phone_number"
	case ButtonCopyCode:
		return "copy_code_example"
	case ButtonFlow:
		return "flow_token"
	}
	return "type"
}

// ValidateCarouselParameter checks one operator-configured parameter row.
// row is its position in the notification and only used in messages.
func ValidateCarouselParameter(row int, p CarouselParameter) error {
	if !p.Kind.Valid() {
		return errs.ConfigAt("parameter", row, "parameter_type", "unknown kind %q", p.Kind)
	}
	if strings.TrimSpace(p.Variable) == "" {
		return errs.ConfigAt("parameter", row, "variable_name", "is required")
	}
	if p.Kind == ParamBodyVariable && !positionalVariable.MatchString(p.Variable) {
		return errs.ConfigAt("parameter", row, "variable_name",
			"body variables must look like {{1}}, got %q", p.Variable)
	}
	if p.Kind.CardScoped() {
		if p.CardIndex == nil {
			return errs.ConfigAt("parameter", row, "card_index", "is required for %s", p.Kind)
		}
		if *p.CardIndex < 0 {
			return errs.ConfigAt("parameter", row, "card_index", "must not be negative")
		}
	}
	if p.FieldName == "" && p.Default == "" {
		return errs.ConfigAt("parameter", row, "field_name", "either a field name or a default value is required")
	}
	return nil
}

// ValidateCards checks the card count, index uniqueness and every card.
func ValidateCards(cards []Card) error {
	if len(cards) == 0 {
		return errs.Config("carousel", "cards", "at least one card is required")
	}
	if len(cards) > MaxCarouselCards {
		return errs.Config("carousel", "cards",
			"carousel template cannot have more than %d cards (got %d)", MaxCarouselCards, len(cards))
	}
	seen := make(map[int]struct{}, len(cards))
	for _, c := range cards {
		if _, dup := seen[c.Index]; dup {
			return errs.ConfigAt("card", c.Index, "card_index", "is used by more than one card")
		}
		seen[c.Index] = struct{}{}
		if err := ValidateCard(c); err != nil {
			return err
		}
	}
	return nil
}

func ValidateCard(c Card) error {
	if c.Index < 0 {
		return errs.ConfigAt("card", c.Index, "card_index", "must not be negative")
	}
	switch {
	case c.HeaderKind == HeaderText:
		if strings.TrimSpace(c.HeaderText) == "" {
			return errs.ConfigAt("card", c.Index, "header_text", "is required for TEXT headers")
		}
		if n := utf8.RuneCountInString(c.HeaderText); n > MaxCardHeaderText {
			return errs.ConfigAt("card", c.Index, "header_text",
				"must be %d characters or less (got %d)", MaxCardHeaderText, n)
		}
	case c.HeaderKind == HeaderDocument:
		return errs.ConfigAt("card", c.Index, "header_type", "card headers must be TEXT, IMAGE or VIDEO (got %s)", c.HeaderKind)
	case c.HeaderKind.IsMedia():
		if c.HeaderContent == "" && c.Handle == "" {
			return errs.ConfigAt("card", c.Index, "header_content", "%s header requires uploaded file", c.HeaderKind)
		}
	case c.HeaderKind.IsNone():
	default:
		return errs.ConfigAt("card", c.Index, "header_type", "unknown header kind %q", c.HeaderKind)
	}
	if n := utf8.RuneCountInString(c.Body); n > MaxCardBodyText {
		return errs.ConfigAt("card", c.Index, "body_text",
			"must be %d characters or less (got %d)", MaxCardBodyText, n)
	}
	if len(c.Buttons) > MaxCardButtons {
		return errs.ConfigAt("card", c.Index, "buttons",
			"maximum %d buttons allowed per card (got %d)", MaxCardButtons, len(c.Buttons))
	}
	for i, b := range c.Buttons {
		if b.Action == nil || !b.Action.Type().Valid() {
			return errs.ConfigAt("card", c.Index, "buttons", "button %d has no type", i)
		}
	}
	return nil
}
