package payload

import (
	"context"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/errs"
	"whatsapp-notify/internal/metrics"
)

// SendContext carries the per-recipient bindings for one message.
type SendContext struct {
	Source Source
	// BodyFields are document fields bound to the body markers, in order.
	BodyFields     []string
	ButtonParams   []domain.ButtonParam
	CarouselParams []domain.CarouselParameter
	// Attachment overrides the template's header media reference.
	Attachment string
	Filename   string
}

// BuildTemplateComponents assembles the components array for the given
// endpoint. Every structural check runs before any component is built.
func (b *Builder) BuildTemplateComponents(ctx context.Context, tmpl domain.Template, sc SendContext, mode Mode) ([]ComponentObj, error) {
	kind := "template"
	if tmpl.IsCarousel() {
		kind = "carousel"
	}

	var (
		out []ComponentObj
		err error
	)
	if mode == Send {
		out, err = b.sendComponents(ctx, tmpl, sc)
	} else {
		out, err = b.creationComponents(ctx, tmpl, sc)
	}
	if err != nil {
		b.logger.Debug("template components rejected",
			zap.String("template", tmpl.Name),
			zap.Stringer("mode", mode),
			zap.Error(err))
		return nil, err
	}
	metrics.RecordPayloadBuild(mode.String(), kind)
	return out, nil
}

func (b *Builder) creationComponents(ctx context.Context, tmpl domain.Template, sc SendContext) ([]ComponentObj, error) {
	if err := domain.ValidateTemplate(tmpl); err != nil {
		return nil, err
	}

	body := ComponentObj{Type: "BODY", Text: tmpl.Body}
	if samples := bodySamples(tmpl); len(samples) > 0 {
		body.Example = &ExampleObj{BodyText: [][]string{samples}}
	}
	out := []ComponentObj{body}

	switch {
	case tmpl.HeaderKind == domain.HeaderText:
		header := ComponentObj{Type: "HEADER", Format: string(domain.HeaderText), Text: tmpl.HeaderText}
		if tmpl.HeaderSample != "" {
			header.Example = &ExampleObj{HeaderText: splitTrim(tmpl.HeaderSample, ", ")}
		}
		out = append(out, header)
	case tmpl.HeaderKind.IsMedia():
		handle, err := b.templateHandle(ctx, tmpl)
		if err != nil {
			return nil, err
		}
		if handle != "" {
			out = append(out, ComponentObj{
				Type:    "HEADER",
				Format:  string(tmpl.HeaderKind),
				Example: &ExampleObj{HeaderHandle: []string{handle}},
			})
		}
	}

	if tmpl.Footer != "" {
		out = append(out, ComponentObj{Type: "FOOTER", Text: tmpl.Footer})
	}

	if tmpl.IsCarousel() {
		carousel, err := b.BuildCarousel(ctx, tmpl, sc.CarouselParams, sc.Source)
		if err != nil {
			return nil, err
		}
		if carousel == nil {
			return nil, errs.Config("template", "cards", "carousel template has no cards")
		}
		return append(out, *carousel), nil
	}

	if len(tmpl.Buttons) > 0 {
		buttons := make([]ButtonObj, 0, len(tmpl.Buttons))
		for _, btn := range tmpl.Buttons {
			if obj := b.CreationButton(btn, sc.Source); obj != nil {
				buttons = append(buttons, *obj)
			}
		}
		out = append(out, ComponentObj{Type: "BUTTONS", Buttons: buttons})
	}
	return out, nil
}

func (b *Builder) templateHandle(ctx context.Context, tmpl domain.Template) (string, error) {
	if tmpl.HeaderHandle != "" {
		return tmpl.HeaderHandle, nil
	}
	if tmpl.HeaderSample == "" {
		return "", nil
	}
	if b.handles == nil {
		return "", errs.Config("header", "header_handle", "%s header needs an uploaded sample", tmpl.HeaderKind)
	}
	handle, err := b.handles.GetOrUpload(ctx, TemplateHandleKey(tmpl), tmpl.HeaderSample)
	if err != nil {
		return "", errors.Wrapf(err, "upload header sample for template %s", tmpl.Name)
	}
	return handle, nil
}

func (b *Builder) sendComponents(ctx context.Context, tmpl domain.Template, sc SendContext) ([]ComponentObj, error) {
	params, err := b.CheckButtonParams(tmpl, sc.ButtonParams)
	if err != nil {
		return nil, err
	}

	var out []ComponentObj

	bodyParams, err := b.sendBodyParams(tmpl, sc)
	if err != nil {
		return nil, err
	}
	if len(bodyParams) > 0 {
		out = append(out, ComponentObj{Type: "body", Parameters: bodyParams})
	}

	if tmpl.HeaderKind.IsMedia() {
		ref := sc.Attachment
		if ref == "" {
			ref = tmpl.HeaderSample
		}
		media := b.sendMedia(ref, sc.Source)
		if media == nil {
			return nil, errs.Config("header", "attachment", "%s header requires a media link", tmpl.HeaderKind)
		}
		if tmpl.HeaderKind == domain.HeaderDocument {
			media.Filename = sc.Filename
			if media.Filename == "" {
				media.Filename = path.Base(strings.SplitN(ref, "?", 2)[0])
			}
		}
		out = append(out, ComponentObj{
			Type:       "header",
			Parameters: []ParameterObj{mediaParam(tmpl.HeaderKind, *media)},
		})
	}

	if tmpl.IsCarousel() {
		carousel, err := b.BuildSendCarousel(ctx, tmpl, sc.CarouselParams, sc.Source)
		if err != nil {
			return nil, err
		}
		if carousel == nil {
			return nil, errs.Config("template", "cards", "carousel template has no cards")
		}
		return append(out, *carousel), nil
	}

	for _, p := range params {
		c := b.SendButton(p.Index, p.Action, sc.Source)
		if c == nil {
			return nil, errs.ConfigAt("button", p.Index, "parameters", "%s value resolved to empty", p.Action.Type())
		}
		out = append(out, *c)
	}
	return out, nil
}

// CheckButtonParams requires one send-time parameter per template button,
// each of the matching type with its mandatory field set. It returns the
// parameters in button order.
func (b *Builder) CheckButtonParams(tmpl domain.Template, params []domain.ButtonParam) ([]domain.ButtonParam, error) {
	if tmpl.IsCarousel() || len(tmpl.Buttons) == 0 {
		return nil, nil
	}
	if len(tmpl.Buttons) > domain.MaxTemplateButtons {
		return nil, errs.Config("template", "buttons", "maximum %d buttons allowed (got %d)", domain.MaxTemplateButtons, len(tmpl.Buttons))
	}
	if len(params) != len(tmpl.Buttons) {
		return nil, errs.Config("template", "button_parameters",
			"template has %d buttons but %d button parameters", len(tmpl.Buttons), len(params))
	}
	sorted := append([]domain.ButtonParam(nil), params...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	for i, p := range sorted {
		if p.Index != i {
			return nil, errs.ConfigAt("button", p.Index, "index", "expected button parameter at index %d", i)
		}
		if err := domain.ValidateButtonParam(p); err != nil {
			return nil, err
		}
		if want := tmpl.Buttons[i].Type(); want != p.Action.Type() {
			return nil, errs.ConfigAt("button", i, "type", "template button is %s but parameter is %s", want, p.Action.Type())
		}
	}
	return sorted, nil
}

func (b *Builder) sendBodyParams(tmpl domain.Template, sc SendContext) ([]ParameterObj, error) {
	markers := PositionalMarkers(tmpl.Body)
	if len(sc.BodyFields) == 0 && tmpl.IsCarousel() {
		vars := Classify(sc.CarouselParams, sc.Source).BodyVariables
		params := make([]ParameterObj, 0, len(markers))
		for _, n := range markers {
			key := "{{" + strconv.Itoa(n) + "}}"
			v, ok := vars[key]
			if !ok {
				return nil, errs.Config("template", "body", "no value bound for %s", key)
			}
			params = append(params, textParam(nonEmpty(v)))
		}
		return params, nil
	}

	params := make([]ParameterObj, 0, len(sc.BodyFields))
	for _, field := range sc.BodyFields {
		v, _ := lookup(sc.Source, field)
		params = append(params, textParam(nonEmpty(v)))
	}
	if len(params) != len(markers) {
		return nil, errs.Config("template", "body",
			"body has %d variables but %d values are bound", len(markers), len(params))
	}
	return params, nil
}

// sendMedia turns a stored reference into a link or media id. Relative file
// paths are served from the site; private ones need the document's share key.
func (b *Builder) sendMedia(ref string, src Source) *MediaObj {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return &MediaObj{Link: ref}
	case strings.HasPrefix(ref, "/"):
		link := strings.TrimRight(b.siteURL, "/") + ref
		if strings.HasPrefix(ref, "/private/") {
			link = b.withShareKey(link, src)
		}
		return &MediaObj{Link: link}
	}
	return &MediaObj{ID: ref}
}

func (b *Builder) withShareKey(link string, src Source) string {
	sk, ok := src.(ShareKeySource)
	if !ok {
		return link
	}
	key, err := sk.ShareKey()
	if err != nil || key == "" {
		b.logger.Warn("no share key for private attachment", zap.String("link", link), zap.Error(err))
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String()
}

func mediaParam(kind domain.HeaderKind, m MediaObj) ParameterObj {
	p := ParameterObj{Type: strings.ToLower(string(kind))}
	switch kind {
	case domain.HeaderImage:
		p.Image = &m
	case domain.HeaderVideo:
		p.Video = &m
	case domain.HeaderDocument:
		p.Document = &m
	}
	return p
}

func bodySamples(tmpl domain.Template) []string {
	if tmpl.SampleValues != "" {
		return splitTrim(tmpl.SampleValues, ",")
	}
	return sampleValues(PositionalMarkers(tmpl.Body))
}

func splitTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
