package repository

import (
	"context"
	"strings"

	"github.com/ecodeclub/ekit/slice"
	"gorm.io/gorm"

	"whatsapp-notify/internal/models"
)

// MessageRepository keeps the outgoing message history, the per-send
// notification log, uploaded media records and the contact list.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) SaveMessage(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepository) SaveLog(ctx context.Context, l *models.NotificationLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *MessageRepository) SaveMedia(ctx context.Context, m *models.Media) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListMessages returns the newest messages first, optionally for one recipient.
func (r *MessageRepository) ListMessages(ctx context.Context, recipient string, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("id desc").Limit(limit)
	if recipient != "" {
		q = q.Where("recipient = ?", recipient)
	}
	var out []models.Message
	return out, q.Find(&out).Error
}

func (r *MessageRepository) ListLogs(ctx context.Context, notificationID string, limit int) ([]models.NotificationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Order("id desc").Limit(limit)
	if notificationID != "" {
		q = q.Where("notification_id = ?", notificationID)
	}
	var out []models.NotificationLog
	return out, q.Find(&out).Error
}

func (r *MessageRepository) SaveContact(ctx context.Context, c *models.Contact) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// ContactNumbers returns the numbers of every contact carrying tag, or of
// all contacts when tag is empty.
func (r *MessageRepository) ContactNumbers(ctx context.Context, tag string) ([]string, error) {
	var contacts []models.Contact
	if err := r.db.WithContext(ctx).Order("wa_id").Find(&contacts).Error; err != nil {
		return nil, err
	}
	if tag != "" {
		contacts = slice.FilterMap(contacts, func(idx int, c models.Contact) (models.Contact, bool) {
			return c, hasTag(c.Tags, tag)
		})
	}
	return slice.Map(contacts, func(idx int, c models.Contact) string { return c.WaID }), nil
}

func hasTag(tags, tag string) bool {
	for _, t := range strings.Split(tags, ",") {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}
