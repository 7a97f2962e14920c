package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ecodeclub/ekit/slice"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/errs"
	"whatsapp-notify/internal/models"
)

// TemplateRepository stores template definitions with their buttons and
// carousel cards.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) preload(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Buttons", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("card_index") }).
		Preload("Cards.Buttons", func(db *gorm.DB) *gorm.DB { return db.Order("idx") })
}

// Create assigns ids and the provider name, then stores the whole tree.
func (r *TemplateRepository) Create(ctx context.Context, t domain.Template) (domain.Template, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.ActualName == "" {
		t.ActualName = domain.ActualName(t.Name)
	}
	for i := range t.Cards {
		if t.Cards[i].ID == "" {
			t.Cards[i].ID = uuid.NewString()
		}
	}
	m := templateToModel(t)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Template{}, fmt.Errorf("create template %s: %w", t.Name, err)
	}
	return t, nil
}

// Update rewrites the template row and replaces its buttons and cards.
func (r *TemplateRepository) Update(ctx context.Context, t domain.Template) error {
	for i := range t.Cards {
		if t.Cards[i].ID == "" {
			t.Cards[i].ID = uuid.NewString()
		}
	}
	m := templateToModel(t)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, t.ID); err != nil {
			return err
		}
		res := tx.Model(&m).Select("*").Omit("id", "created_at", clause.Associations).Updates(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", errs.ErrTemplateNotFound, t.ID)
		}
		if len(m.Buttons) > 0 {
			if err := tx.Create(&m.Buttons).Error; err != nil {
				return err
			}
		}
		if len(m.Cards) > 0 {
			if err := tx.Create(&m.Cards).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteChildren(tx *gorm.DB, templateID string) error {
	var cardIDs []string
	if err := tx.Model(&models.CarouselCard{}).Where("template_id = ?", templateID).Pluck("id", &cardIDs).Error; err != nil {
		return err
	}
	if len(cardIDs) > 0 {
		if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.TemplateButton{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("template_id = ?", templateID).Delete(&models.TemplateButton{}).Error; err != nil {
		return err
	}
	return tx.Where("template_id = ?", templateID).Delete(&models.CarouselCard{}).Error
}

func (r *TemplateRepository) Get(ctx context.Context, id string) (domain.Template, error) {
	var m models.Template
	err := r.preload(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Template{}, fmt.Errorf("%w: %s", errs.ErrTemplateNotFound, id)
	}
	if err != nil {
		return domain.Template{}, err
	}
	return templateToDomain(m), nil
}

func (r *TemplateRepository) GetByActualName(ctx context.Context, name string) (domain.Template, error) {
	var m models.Template
	err := r.preload(ctx).Where("actual_name = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Template{}, fmt.Errorf("%w: %s", errs.ErrTemplateNotFound, name)
	}
	if err != nil {
		return domain.Template{}, err
	}
	return templateToDomain(m), nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]domain.Template, error) {
	var ms []models.Template
	if err := r.preload(ctx).Order("name").Find(&ms).Error; err != nil {
		return nil, err
	}
	return slice.Map(ms, func(idx int, src models.Template) domain.Template {
		return templateToDomain(src)
	}), nil
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Template{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", errs.ErrTemplateNotFound, id)
		}
		return nil
	})
}

// SetProviderStatus records the outcome of a registration or a sync.
func (r *TemplateRepository) SetProviderStatus(ctx context.Context, id, providerID string, status domain.TemplateStatus) error {
	updates := map[string]interface{}{"status": string(status)}
	if providerID != "" {
		updates["provider_id"] = providerID
	}
	return r.db.WithContext(ctx).Model(&models.Template{}).Where("id = ?", id).Updates(updates).Error
}

// FindHandle returns the persisted asset handle for a handle-store key
// ("card:<id>" or "template:<id>"), or "" when none is stored.
func (r *TemplateRepository) FindHandle(ctx context.Context, key string) (string, error) {
	table, column, id, ok := handleColumn(key)
	if !ok {
		return "", nil
	}
	var handles []string
	err := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Limit(1).Pluck(column, &handles).Error
	if err != nil || len(handles) == 0 {
		return "", err
	}
	return handles[0], nil
}

// SaveHandle writes back a freshly uploaded handle.
func (r *TemplateRepository) SaveHandle(ctx context.Context, key, handle string) error {
	table, column, id, ok := handleColumn(key)
	if !ok {
		return nil
	}
	return r.db.WithContext(ctx).Table(table).Where("id = ?", id).Update(column, handle).Error
}

func handleColumn(key string) (table, column, id string, ok bool) {
	kind, id, found := strings.Cut(key, ":")
	if !found || id == "" {
		return "", "", "", false
	}
	switch kind {
	case "card":
		return models.CarouselCard{}.TableName(), "whatsapp_handle", id, true
	case "template":
		return models.Template{}.TableName(), "header_handle", id, true
	}
	return "", "", "", false
}

func templateToModel(t domain.Template) models.Template {
	m := models.Template{
		ID:           t.ID,
		Name:         t.Name,
		ActualName:   t.ActualName,
		Language:     t.Language,
		Category:     t.Category,
		TemplateType: string(t.Type),
		Body:         t.Body,
		SampleValues: t.SampleValues,
		HeaderType:   string(t.HeaderKind),
		HeaderText:   t.HeaderText,
		HeaderSample: t.HeaderSample,
		HeaderHandle: t.HeaderHandle,
		Footer:       t.Footer,
		Status:       string(t.Status),
		ProviderID:   t.ProviderID,
	}
	if m.TemplateType == "" {
		m.TemplateType = string(domain.TemplateStandard)
	}
	m.Buttons = slice.Map(t.Buttons, func(idx int, b domain.Button) models.TemplateButton {
		mb := buttonToModel(idx, b)
		mb.TemplateID = t.ID
		return mb
	})
	m.Cards = slice.Map(t.Cards, func(idx int, c domain.Card) models.CarouselCard {
		return models.CarouselCard{
			ID:             c.ID,
			TemplateID:     t.ID,
			CardIndex:      c.Index,
			HeaderType:     string(c.HeaderKind),
			HeaderText:     c.HeaderText,
			HeaderContent:  c.HeaderContent,
			Body:           c.Body,
			WhatsAppHandle: c.Handle,
			Buttons: slice.Map(c.Buttons, func(idx int, b domain.Button) models.TemplateButton {
				mb := buttonToModel(idx, b)
				mb.CardID = c.ID
				return mb
			}),
		}
	})
	return m
}

func buttonToModel(idx int, b domain.Button) models.TemplateButton {
	m := models.TemplateButton{Idx: idx, Type: string(b.Type()), Text: b.Text}
	switch a := b.Action.(type) {
	case domain.QuickReply:
		m.Payload = a.Payload
	case domain.URL:
		m.URL = a.URL
	case domain.PhoneNumber:
		m.PhoneNumber = a.PhoneNumber
	case domain.CopyCode:
		m.CopyCode = a.Example
	case domain.Flow:
		m.FlowID = a.FlowID
		m.FlowAction = a.Action
		m.NavigateScreen = a.NavigateScreen
	}
	return m
}

func templateToDomain(m models.Template) domain.Template {
	t := domain.Template{
		ID:           m.ID,
		Name:         m.Name,
		ActualName:   m.ActualName,
		Language:     m.Language,
		Category:     m.Category,
		Type:         domain.TemplateType(m.TemplateType),
		Body:         m.Body,
		SampleValues: m.SampleValues,
		HeaderKind:   domain.HeaderKind(m.HeaderType),
		HeaderText:   m.HeaderText,
		HeaderSample: m.HeaderSample,
		HeaderHandle: m.HeaderHandle,
		Footer:       m.Footer,
		Status:       domain.TemplateStatus(m.Status),
		ProviderID:   m.ProviderID,
		Buttons:      buttonsToDomain(m.Buttons),
	}
	t.Cards = slice.Map(m.Cards, func(idx int, c models.CarouselCard) domain.Card {
		return domain.Card{
			ID:            c.ID,
			Index:         c.CardIndex,
			HeaderKind:    domain.HeaderKind(c.HeaderType),
			HeaderText:    c.HeaderText,
			HeaderContent: c.HeaderContent,
			Body:          c.Body,
			Buttons:       buttonsToDomain(c.Buttons),
			Handle:        c.WhatsAppHandle,
		}
	})
	if len(t.Cards) == 0 {
		t.Cards = nil
	}
	return t
}

func buttonsToDomain(ms []models.TemplateButton) []domain.Button {
	if len(ms) == 0 {
		return nil
	}
	sorted := append([]models.TemplateButton(nil), ms...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Idx < sorted[j].Idx })
	return slice.Map(sorted, func(idx int, b models.TemplateButton) domain.Button {
		return domain.Button{
			Text: b.Text,
			Action: domain.NewButtonAction(domain.ButtonType(b.Type),
				b.Payload, b.URL, b.PhoneNumber, b.CopyCode, b.FlowID, "", b.FlowAction, b.NavigateScreen),
		}
	})
}
