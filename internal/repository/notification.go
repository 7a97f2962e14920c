package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecodeclub/ekit/slice"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/errs"
	"whatsapp-notify/internal/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	m := notificationToModel(n)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Notification{}, fmt.Errorf("create notification %s: %w", n.Name, err)
	}
	return n, nil
}

func (r *NotificationRepository) Get(ctx context.Context, id string) (domain.Notification, error) {
	var m models.Notification
	err := r.db.WithContext(ctx).
		Preload("ButtonParams", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Preload("CarouselParams", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Notification{}, fmt.Errorf("%w: %s", errs.ErrNotificationNotFound, id)
	}
	if err != nil {
		return domain.Notification{}, err
	}
	return notificationToDomain(m), nil
}

func (r *NotificationRepository) List(ctx context.Context) ([]domain.Notification, error) {
	var ms []models.Notification
	err := r.db.WithContext(ctx).
		Preload("ButtonParams", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Preload("CarouselParams", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Order("name").Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return slice.Map(ms, func(idx int, src models.Notification) domain.Notification {
		return notificationToDomain(src)
	}), nil
}

func notificationToModel(n domain.Notification) models.Notification {
	return models.Notification{
		ID:               n.ID,
		Name:             n.Name,
		TemplateID:       n.TemplateID,
		DocumentType:     n.DocumentType,
		Enabled:          n.Enabled,
		PhoneField:       n.PhoneField,
		BodyFields:       n.BodyFields,
		AttachmentSource: string(n.AttachmentSource),
		AttachmentField:  n.AttachmentField,
		Attachment:       n.Attachment,
		PrintFormat:      n.PrintFormat,
		Filename:         n.Filename,
		ButtonParams: slice.Map(n.ButtonParams, func(idx int, p domain.ButtonParam) models.NotificationButtonParam {
			m := models.NotificationButtonParam{NotificationID: n.ID, Idx: p.Index}
			if p.Action == nil {
				return m
			}
			m.Type = string(p.Action.Type())
			switch a := p.Action.(type) {
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
				m.FlowToken = a.Token
				m.FlowAction = a.Action
				m.NavigateScreen = a.NavigateScreen
			}
			return m
		}),
		CarouselParams: slice.Map(n.CarouselParams, func(idx int, p domain.CarouselParameter) models.NotificationCarouselParam {
			return models.NotificationCarouselParam{
				NotificationID: n.ID,
				Idx:            idx,
				Kind:           string(p.Kind),
				Variable:       p.Variable,
				CardIndex:      p.CardIndex,
				FieldName:      p.FieldName,
				DefaultValue:   p.Default,
			}
		}),
	}
}

func notificationToDomain(m models.Notification) domain.Notification {
	n := domain.Notification{
		ID:               m.ID,
		Name:             m.Name,
		TemplateID:       m.TemplateID,
		DocumentType:     m.DocumentType,
		Enabled:          m.Enabled,
		PhoneField:       m.PhoneField,
		BodyFields:       m.BodyFields,
		AttachmentSource: domain.AttachmentSource(m.AttachmentSource),
		AttachmentField:  m.AttachmentField,
		Attachment:       m.Attachment,
		PrintFormat:      m.PrintFormat,
		Filename:         m.Filename,
	}
	if len(m.ButtonParams) > 0 {
		n.ButtonParams = slice.Map(m.ButtonParams, func(idx int, p models.NotificationButtonParam) domain.ButtonParam {
			return domain.ButtonParam{
				Index: p.Idx,
				Action: domain.NewButtonAction(domain.ButtonType(p.Type),
					p.Payload, p.URL, p.PhoneNumber, p.CopyCode, p.FlowID, p.FlowToken, p.FlowAction, p.NavigateScreen),
			}
		})
	}
	if len(m.CarouselParams) > 0 {
		n.CarouselParams = slice.Map(m.CarouselParams, func(idx int, p models.NotificationCarouselParam) domain.CarouselParameter {
			return domain.CarouselParameter{
				Kind:      domain.ParameterKind(p.Kind),
				Variable:  p.Variable,
				CardIndex: p.CardIndex,
				FieldName: p.FieldName,
				Default:   p.DefaultValue,
			}
		})
	}
	return n
}
