package domain

import "strings"

type HeaderKind string

const (
	HeaderNone     HeaderKind = "NONE"
	HeaderText     HeaderKind = "TEXT"
	HeaderImage    HeaderKind = "IMAGE"
	HeaderDocument HeaderKind = "DOCUMENT"
	HeaderVideo    HeaderKind = "VIDEO"
)

// IsMedia reports whether the header carries a media reference.
func (k HeaderKind) IsMedia() bool {
	return k == HeaderImage || k == HeaderDocument || k == HeaderVideo
}

// IsNone treats the empty kind as no header.
func (k HeaderKind) IsNone() bool {
	return k == "" || k == HeaderNone
}

type TemplateType string

const (
	TemplateStandard TemplateType = "Template"
	TemplateCarousel TemplateType = "Carousel"
)

type TemplateStatus string

const (
	StatusPending  TemplateStatus = "PENDING"
	StatusApproved TemplateStatus = "APPROVED"
	StatusRejected TemplateStatus = "REJECTED"
)

const (
	MaxTemplateButtons = 3
	MaxCarouselCards   = 10
	MaxCardButtons     = 2
	MaxCardHeaderText  = 60
	MaxCardBodyText    = 160
)

// Template is a stored template definition, already loaded by the caller.
type Template struct {
	ID           string
	Name         string
	ActualName   string
	Language     string
	Category     string
	Type         TemplateType
	Body         string
	SampleValues string // comma separated examples for the body markers
	HeaderKind   HeaderKind
	HeaderText   string
	// HeaderSample holds the ", " separated header text examples for TEXT
	// headers, or the media file reference for media headers.
	HeaderSample string
	HeaderHandle string
	Footer       string
	Buttons      []Button
	Cards        []Card
	Status       TemplateStatus
	ProviderID   string
}

func (t Template) IsCarousel() bool {
	return t.Type == TemplateCarousel
}

// ProviderName is the name the template is registered under remotely.
func (t Template) ProviderName() string {
	if t.ActualName != "" {
		return t.ActualName
	}
	return ActualName(t.Name)
}

// ActualName normalises a display name the way the provider expects it.
func ActualName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Card is one carousel card.
type Card struct {
	ID            string
	Index         int
	HeaderKind    HeaderKind
	HeaderText    string
	HeaderContent string // URL, file reference or provider asset handle
	Body          string
	Buttons       []Button
	Handle        string // cached provider asset handle for the header media
}

type ParameterKind string

const (
	ParamBodyVariable ParameterKind = "body_variable"
	ParamCardHeader   ParameterKind = "card_header"
	ParamCardBody     ParameterKind = "card_body"
)

func (k ParameterKind) Valid() bool {
	return k == ParamBodyVariable || k == ParamCardHeader || k == ParamCardBody
}

func (k ParameterKind) CardScoped() bool {
	return k == ParamCardHeader || k == ParamCardBody
}

// CarouselParameter binds a positional marker to a document field or literal.
type CarouselParameter struct {
	Kind      ParameterKind
	Variable  string // "{{1}}"
	CardIndex *int
	FieldName string
	Default   string
}
