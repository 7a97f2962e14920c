package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/errs"
	"whatsapp-notify/pkg/models"
)

// SyncResult counts what a Sync run did.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Sync pulls every template registered with the provider into the local
// store, matching on the provider name. Nothing is submitted back.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	remote, err := s.provider.GetTemplates(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch templates: %w", err)
	}

	for _, info := range remote {
		existing, err := s.store.GetByActualName(ctx, info.Name)
		switch {
		case err == nil:
			t := applyRemote(existing, info)
			if err := s.store.Update(ctx, t); err != nil {
				res.Failed++
				s.logger.Error("sync update failed", zap.String("template", info.Name), zap.Error(err))
				continue
			}
			res.Updated++
		case errors.Is(err, errs.ErrTemplateNotFound):
			t := applyRemote(domain.Template{Name: info.Name, ActualName: info.Name}, info)
			if _, err := s.store.Create(ctx, t); err != nil {
				res.Failed++
				s.logger.Error("sync create failed", zap.String("template", info.Name), zap.Error(err))
				continue
			}
			res.Created++
		default:
			return res, err
		}
	}
	s.logger.Info("templates synced",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed))
	return res, nil
}

// applyRemote overlays the provider's view of a template onto t. Components
// absent from the remote definition leave the local values untouched.
func applyRemote(t domain.Template, info models.TemplateInfo) domain.Template {
	t.ProviderID = info.ID
	t.Status = domain.TemplateStatus(info.Status)
	t.Language = info.Language
	t.Category = info.Category
	if t.Type == "" {
		t.Type = domain.TemplateStandard
	}

	for _, c := range info.Components {
		switch strings.ToUpper(c.Type) {
		case "HEADER":
			t.HeaderKind = domain.HeaderKind(c.Format)
			if c.Format == string(domain.HeaderText) {
				t.HeaderText = c.Text
			}
		case "BODY":
			t.Body = c.Text
			if c.Example != nil && len(c.Example.BodyText) > 0 {
				t.SampleValues = strings.Join(c.Example.BodyText[0], ",")
			}
		case "FOOTER":
			t.Footer = c.Text
		case "BUTTONS":
			t.Buttons = remoteButtons(c.Buttons)
		case "CAROUSEL":
			t.Type = domain.TemplateCarousel
			t.Buttons = nil
			t.Cards = keepCardIdentity(t.Cards, remoteCards(c.Cards))
		}
	}
	return t
}

func remoteButtons(in []models.TemplateButton) []domain.Button {
	var out []domain.Button
	for _, b := range in {
		bt := domain.ButtonType(b.Type)
		if !bt.Valid() {
			continue
		}
		var code string
		if len(b.Example) > 0 {
			code = b.Example[0]
		}
		out = append(out, domain.Button{
			Text:   b.Text,
			Action: domain.NewButtonAction(bt, "", b.URL, b.PhoneNumber, code, flowID(b.FlowID), "", b.FlowAction, b.NavigateScreen),
		})
	}
	return out
}

func remoteCards(in []models.TemplateCard) []domain.Card {
	out := make([]domain.Card, 0, len(in))
	for i, rc := range in {
		card := domain.Card{Index: i}
		for _, c := range rc.Components {
			switch strings.ToUpper(c.Type) {
			case "HEADER":
				card.HeaderKind = domain.HeaderKind(strings.ToUpper(c.Format))
				if card.HeaderKind == domain.HeaderText {
					card.HeaderText = c.Text
				}
				if c.Example != nil && len(c.Example.HeaderHandle) > 0 {
					card.HeaderContent = c.Example.HeaderHandle[0]
				}
			case "BODY":
				card.Body = c.Text
			case "BUTTONS":
				card.Buttons = remoteButtons(c.Buttons)
			}
		}
		out = append(out, card)
	}
	return out
}

// keepCardIdentity matches remote cards to local ones by position and
// carries over the local id. The cached handle is carried only when
// the header media is unchanged; a changed header gets a fresh card.
func keepCardIdentity(local, remote []domain.Card) []domain.Card {
	prev := append([]domain.Card(nil), local...)
	sort.SliceStable(prev, func(i, j int) bool { return prev[i].Index < prev[j].Index })
	for i := range remote {
		if i >= len(prev) || prev[i].HeaderKind != remote[i].HeaderKind {
			continue
		}
		old := prev[i]
		if remote[i].HeaderKind.IsMedia() {
			ref := remote[i].HeaderContent
			if ref != old.HeaderContent && (old.Handle == "" || ref != old.Handle) {
				continue
			}
			remote[i].Handle = old.Handle
		}
		remote[i].ID = old.ID
	}
	return remote
}

// flowID normalises flow ids, which arrive as JSON numbers or strings.
func flowID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
