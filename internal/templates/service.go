package templates

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/metrics"
	"whatsapp-notify/internal/payload"
	"whatsapp-notify/internal/whatsapp"
	"whatsapp-notify/internal/ws"
	"whatsapp-notify/pkg/models"
)

// Provider is the subset of the Cloud API client used for template management.
type Provider interface {
	CreateTemplate(ctx context.Context, req whatsapp.CreateTemplateRequest) (*models.CreateTemplateResponse, error)
	UpdateTemplate(ctx context.Context, templateID string, components []payload.ComponentObj) error
	DeleteTemplate(ctx context.Context, templateName string) error
	GetTemplates(ctx context.Context) ([]models.TemplateInfo, error)
}

type Store interface {
	Create(ctx context.Context, t domain.Template) (domain.Template, error)
	Update(ctx context.Context, t domain.Template) error
	Get(ctx context.Context, id string) (domain.Template, error)
	GetByActualName(ctx context.Context, name string) (domain.Template, error)
	List(ctx context.Context) ([]domain.Template, error)
	Delete(ctx context.Context, id string) error
	SetProviderStatus(ctx context.Context, id, providerID string, status domain.TemplateStatus) error
}

type Broadcaster interface {
	BroadcastEvent(eventType string, data interface{})
}

// Service owns the template lifecycle: local definition, provider
// registration and the periodic pull of provider-side templates.
type Service struct {
	store    Store
	provider Provider
	builder  *payload.Builder
	events   Broadcaster
	logger   *zap.Logger
}

func NewService(store Store, provider Provider, builder *payload.Builder, events Broadcaster, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, provider: provider, builder: builder, events: events, logger: logger}
}

type statusEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Register stores t and submits it for review. The local record is removed
// again when the provider refuses it.
func (s *Service) Register(ctx context.Context, t domain.Template) (domain.Template, error) {
	if err := domain.ValidateTemplate(t); err != nil {
		return domain.Template{}, err
	}
	created, err := s.store.Create(ctx, t)
	if err != nil {
		return domain.Template{}, err
	}

	components, err := s.builder.BuildTemplateComponents(ctx, created, payload.SendContext{}, payload.Creation)
	if err != nil {
		s.rollback(ctx, created)
		return domain.Template{}, err
	}

	resp, err := s.provider.CreateTemplate(ctx, whatsapp.CreateTemplateRequest{
		Name:       created.ProviderName(),
		Language:   created.Language,
		Category:   created.Category,
		Components: components,
	})
	if err != nil {
		metrics.RecordTemplateRegistration("failed")
		s.logger.Error("template registration failed", zap.String("template", created.ProviderName()), zap.Error(err))
		s.rollback(ctx, created)
		return domain.Template{}, fmt.Errorf("register template %s: %w", created.ProviderName(), err)
	}

	status := domain.TemplateStatus(resp.Status)
	if status == "" {
		status = domain.StatusPending
	}
	if err := s.store.SetProviderStatus(ctx, created.ID, resp.ID, status); err != nil {
		return domain.Template{}, err
	}
	created.ProviderID = resp.ID
	created.Status = status

	metrics.RecordTemplateRegistration(string(status))
	s.logger.Info("template registered",
		zap.String("template", created.ProviderName()),
		zap.String("provider_id", resp.ID),
		zap.String("status", string(status)))
	s.publish(created)
	return created, nil
}

func (s *Service) rollback(ctx context.Context, t domain.Template) {
	if err := s.store.Delete(ctx, t.ID); err != nil {
		s.logger.Warn("rollback of local template failed", zap.String("id", t.ID), zap.Error(err))
	}
}

// Update stores the new definition and, for registered templates, pushes
// the rebuilt components to the provider.
func (s *Service) Update(ctx context.Context, t domain.Template) (domain.Template, error) {
	if err := domain.ValidateTemplate(t); err != nil {
		return domain.Template{}, err
	}
	current, err := s.store.Get(ctx, t.ID)
	if err != nil {
		return domain.Template{}, err
	}
	t.ActualName = current.ActualName
	t.ProviderID = current.ProviderID
	t.Status = current.Status
	if err := s.store.Update(ctx, t); err != nil {
		return domain.Template{}, err
	}
	updated, err := s.store.Get(ctx, t.ID)
	if err != nil {
		return domain.Template{}, err
	}
	if updated.ProviderID == "" {
		return updated, nil
	}

	components, err := s.builder.BuildTemplateComponents(ctx, updated, payload.SendContext{}, payload.Creation)
	if err != nil {
		return domain.Template{}, err
	}
	if err := s.provider.UpdateTemplate(ctx, updated.ProviderID, components); err != nil {
		return domain.Template{}, fmt.Errorf("update template %s: %w", updated.ProviderName(), err)
	}
	return updated, nil
}

// Remove deletes the template remotely and then locally. A template the
// provider no longer knows is still removed locally.
func (s *Service) Remove(ctx context.Context, id string) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.provider.DeleteTemplate(ctx, t.ProviderName()); err != nil {
		var apiErr *whatsapp.APIError
		if !errors.As(err, &apiErr) || apiErr.UserTitle != "Message Template Not Found" {
			return fmt.Errorf("delete template %s: %w", t.ProviderName(), err)
		}
		s.logger.Info("template already gone remotely, deleting locally", zap.String("template", t.ProviderName()))
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (domain.Template, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Template, error) {
	return s.store.List(ctx)
}

// Preview builds the registration components without submitting them.
func (s *Service) Preview(ctx context.Context, id string) ([]payload.ComponentObj, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.builder.BuildTemplateComponents(ctx, t, payload.SendContext{}, payload.Creation)
}

func (s *Service) publish(t domain.Template) {
	if s.events == nil {
		return
	}
	s.events.BroadcastEvent(ws.EventTemplateStatus, statusEvent{ID: t.ID, Name: t.ProviderName(), Status: string(t.Status)})
}
