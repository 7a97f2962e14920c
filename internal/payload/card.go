package payload

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/metrics"
)

// BuildCard renders one carousel card in registration shape: header, body,
// then buttons. A failed header upload degrades to the raw reference.
func (b *Builder) BuildCard(ctx context.Context, card domain.Card, cls Classified, src Source) CardObj {
	var components []ComponentObj

	switch {
	case card.HeaderKind == domain.HeaderText:
		text := replacePositional(card.HeaderText, cls.CardHeaders[CardKey(card.Index)])
		components = append(components, ComponentObj{Type: "header", Text: b.Resolve(text, src)})
	case card.HeaderKind.IsMedia():
		components = append(components, ComponentObj{
			Type:    "header",
			Format:  strings.ToLower(string(card.HeaderKind)),
			Example: &ExampleObj{HeaderHandle: []string{b.cardHandle(ctx, card)}},
		})
	}

	if card.Body != "" {
		text := replacePositional(card.Body, cls.cardValues(cls.CardBodies, card.Index))
		text = b.Resolve(text, src)
		body := ComponentObj{Type: "body", Text: text}
		if markers := PositionalMarkers(text); len(markers) > 0 {
			body.Example = &ExampleObj{BodyText: [][]string{sampleValues(markers)}}
		}
		components = append(components, body)
	}

	var buttons []ButtonObj
	for _, btn := range card.Buttons {
		if out := b.CreationButton(btn, src); out != nil {
			buttons = append(buttons, *out)
		}
	}
	if len(buttons) == 0 {
		buttons = []ButtonObj{fallbackButton()}
	}
	components = append(components, ComponentObj{Type: "buttons", Buttons: buttons})

	return CardObj{Components: components}
}

func (b *Builder) cardHandle(ctx context.Context, card domain.Card) string {
	if card.Handle != "" {
		return card.Handle
	}
	if b.handles == nil || card.HeaderContent == "" {
		return card.HeaderContent
	}
	handle, err := b.handles.GetOrUpload(ctx, CardHandleKey(card), card.HeaderContent)
	if err != nil || handle == "" {
		metrics.RecordUploadFallback()
		b.logger.Warn("card header upload failed, using raw reference",
			zap.Int("card_index", card.Index),
			zap.String("content", card.HeaderContent),
			zap.Error(err))
		return card.HeaderContent
	}
	return handle
}

// CardHandleKey is the handle-store key of a card's header media. Cards that
// have not been stored yet are keyed on the reference itself.
func CardHandleKey(card domain.Card) string {
	if card.ID == "" {
		return RefHandleKey(card.HeaderContent)
	}
	return "card:" + card.ID
}

// TemplateHandleKey is the handle-store key of a template's header media.
func TemplateHandleKey(tmpl domain.Template) string {
	if tmpl.ID == "" {
		return RefHandleKey(tmpl.HeaderSample)
	}
	return "template:" + tmpl.ID
}

// RefHandleKey keys media that has no owning record. Such handles are cached
// but never written back.
func RefHandleKey(ref string) string {
	return "ref:" + ref
}
