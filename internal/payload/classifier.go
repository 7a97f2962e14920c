package payload

import (
	"strconv"

	"whatsapp-notify/internal/domain"
)

// Classified buckets carousel parameter values by where they are used.
// Card-scoped buckets are keyed by CardKey.
type Classified struct {
	BodyVariables map[string]string
	CardHeaders   map[string]map[string]string
	CardBodies    map[string]map[string]string
}

func CardKey(index int) string {
	return "card_" + strconv.Itoa(index)
}

// Classify resolves every row against src. Rows are assumed to have passed
// domain.ValidateCarouselParameter.
func Classify(params []domain.CarouselParameter, src Source) Classified {
	out := Classified{
		BodyVariables: map[string]string{},
		CardHeaders:   map[string]map[string]string{},
		CardBodies:    map[string]map[string]string{},
	}
	for _, p := range params {
		value := parameterValue(p, src)
		switch p.Kind {
		case domain.ParamBodyVariable:
			out.BodyVariables[p.Variable] = value
		case domain.ParamCardHeader, domain.ParamCardBody:
			if p.CardIndex == nil {
				continue
			}
			bucket := out.CardBodies
			if p.Kind == domain.ParamCardHeader {
				bucket = out.CardHeaders
			}
			key := CardKey(*p.CardIndex)
			if bucket[key] == nil {
				bucket[key] = map[string]string{}
			}
			bucket[key][p.Variable] = value
		}
	}
	return out
}

func parameterValue(p domain.CarouselParameter, src Source) string {
	if p.FieldName == "" || src == nil {
		return p.Default
	}
	if v, ok := lookup(src, p.FieldName); ok && v != "" {
		return v
	}
	return p.Default
}

// cardValues overlays the card's own values on the template-wide ones.
func (c Classified) cardValues(bucket map[string]map[string]string, index int) map[string]string {
	merged := make(map[string]string, len(c.BodyVariables))
	for k, v := range c.BodyVariables {
		merged[k] = v
	}
	for k, v := range bucket[CardKey(index)] {
		merged[k] = v
	}
	return merged
}
