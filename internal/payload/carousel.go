package payload

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/errs"
)

// BuildCarousel renders the CAROUSEL component used at registration.
// It returns nil, nil when the template has no cards.
func (b *Builder) BuildCarousel(ctx context.Context, tmpl domain.Template, params []domain.CarouselParameter, src Source) (*ComponentObj, error) {
	if len(tmpl.Cards) == 0 {
		return nil, nil
	}
	if err := domain.ValidateCards(tmpl.Cards); err != nil {
		return nil, err
	}
	cls := Classify(params, src)
	cards := sortedCards(tmpl.Cards)
	out := make([]CardObj, 0, len(cards))
	for _, card := range cards {
		out = append(out, b.BuildCard(ctx, card, cls, src))
	}
	return &ComponentObj{Type: "CAROUSEL", Cards: out}, nil
}

// BuildSendCarousel renders the carousel component of a messages request.
// Values come from the live document rather than registration samples.
func (b *Builder) BuildSendCarousel(ctx context.Context, tmpl domain.Template, params []domain.CarouselParameter, src Source) (*ComponentObj, error) {
	if len(tmpl.Cards) == 0 {
		return nil, nil
	}
	if err := domain.ValidateCards(tmpl.Cards); err != nil {
		return nil, err
	}
	cls := Classify(params, src)
	cards := sortedCards(tmpl.Cards)
	out := make([]CardObj, 0, len(cards))
	for pos, card := range cards {
		components, err := b.sendCardComponents(card, cls, src)
		if err != nil {
			return nil, err
		}
		idx := pos
		out = append(out, CardObj{CardIndex: &idx, Components: components})
	}
	return &ComponentObj{Type: "carousel", Cards: out}, nil
}

func (b *Builder) sendCardComponents(card domain.Card, cls Classified, src Source) ([]ComponentObj, error) {
	components := []ComponentObj{}

	switch {
	case card.HeaderKind.IsMedia():
		media := b.sendMedia(card.HeaderContent, src)
		if media == nil {
			return nil, errs.ConfigAt("card", card.Index, "header_content", "%s header has no media to send", card.HeaderKind)
		}
		components = append(components, ComponentObj{
			Type:       "header",
			Parameters: []ParameterObj{mediaParam(card.HeaderKind, *media)},
		})
	case card.HeaderKind == domain.HeaderText:
		values := cls.CardHeaders[CardKey(card.Index)]
		params, err := positionalParams(card.Index, card.HeaderText, values)
		if err != nil {
			return nil, err
		}
		if len(params) > 0 {
			components = append(components, ComponentObj{Type: "header", Parameters: params})
		}
	}

	params, err := positionalParams(card.Index, card.Body, cls.cardValues(cls.CardBodies, card.Index))
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		components = append(components, ComponentObj{Type: "body", Parameters: params})
	}

	for i, btn := range card.Buttons {
		if c := b.SendButton(i, btn.Action, src); c != nil {
			components = append(components, *c)
		}
	}
	return components, nil
}

// positionalParams emits one text parameter per distinct numbered marker.
func positionalParams(cardIndex int, text string, values map[string]string) ([]ParameterObj, error) {
	markers := PositionalMarkers(text)
	params := make([]ParameterObj, 0, len(markers))
	for _, n := range markers {
		key := "{{" + strconv.Itoa(n) + "}}"
		v, ok := values[key]
		if !ok {
			return nil, errs.ConfigAt("card", cardIndex, "parameters", "no value bound for %s", key)
		}
		params = append(params, textParam(nonEmpty(v)))
	}
	return params, nil
}

func sortedCards(cards []domain.Card) []domain.Card {
	out := append([]domain.Card(nil), cards...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func nonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
