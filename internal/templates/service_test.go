package templates

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whatsapp-notify/internal/database"
	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/errs"
	"whatsapp-notify/internal/payload"
	"whatsapp-notify/internal/repository"
	"whatsapp-notify/internal/whatsapp"
	"whatsapp-notify/internal/ws"
	"whatsapp-notify/pkg/models"
)

type mockProvider struct{ mock.Mock }

func (m *mockProvider) CreateTemplate(ctx context.Context, req whatsapp.CreateTemplateRequest) (*models.CreateTemplateResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.CreateTemplateResponse)
	return resp, args.Error(1)
}

func (m *mockProvider) UpdateTemplate(ctx context.Context, templateID string, components []payload.ComponentObj) error {
	return m.Called(ctx, templateID, components).Error(0)
}

func (m *mockProvider) DeleteTemplate(ctx context.Context, templateName string) error {
	return m.Called(ctx, templateName).Error(0)
}

func (m *mockProvider) GetTemplates(ctx context.Context) ([]models.TemplateInfo, error) {
	args := m.Called(ctx)
	infos, _ := args.Get(0).([]models.TemplateInfo)
	return infos, args.Error(1)
}

type recorder struct {
	events []string
}

func (r *recorder) BroadcastEvent(eventType string, _ interface{}) {
	r.events = append(r.events, eventType)
}

func newService(t *testing.T) (*Service, *repository.TemplateRepository, *mockProvider, *recorder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tpl.db")), &gorm.Config{
		Logger:                                   logger.Discard,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	repo := repository.NewTemplateRepository(db)
	provider := &mockProvider{}
	events := &recorder{}
	return NewService(repo, provider, payload.NewBuilder(), events, nil), repo, provider, events
}

func orderUpdate() domain.Template {
	return domain.Template{
		Name:         "Order Update",
		Language:     "en_US",
		Category:     "UTILITY",
		Type:         domain.TemplateStandard,
		Body:         "Hi {{1}}, order {{2}} shipped",
		SampleValues: "Sam,SO-1",
		Footer:       "Thanks",
		Buttons: []domain.Button{
			{Text: "Track", Action: domain.URL{URL: "https://shop.example.com/t/{{1}}"}},
		},
	}
}

func TestRegister(t *testing.T) {
	svc, repo, provider, events := newService(t)
	ctx := context.Background()

	var sent whatsapp.CreateTemplateRequest
	provider.On("CreateTemplate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(whatsapp.CreateTemplateRequest) }).
		Return(&models.CreateTemplateResponse{ID: "1234", Status: "PENDING", Category: "UTILITY"}, nil)

	got, err := svc.Register(ctx, orderUpdate())
	require.NoError(t, err)
	assert.Equal(t, "1234", got.ProviderID)
	assert.Equal(t, domain.StatusPending, got.Status)

	assert.Equal(t, "order_update", sent.Name)
	assert.Equal(t, "en_US", sent.Language)
	raw, err := json.Marshal(sent.Components)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"BODY","text":"Hi {{1}}, order {{2}} shipped","example":{"body_text":[["Sam","SO-1"]]}},
		{"type":"FOOTER","text":"Thanks"},
		{"type":"BUTTONS","buttons":[{"type":"URL","text":"Track","url":"https://shop.example.com/t/{{1}}","example":["Sample1"]}]}
	]`, string(raw))

	stored, err := repo.Get(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "1234", stored.ProviderID)
	assert.Equal(t, []string{ws.EventTemplateStatus}, events.events)
}

func TestRegisterRejected(t *testing.T) {
	svc, repo, provider, events := newService(t)
	ctx := context.Background()

	provider.On("CreateTemplate", mock.Anything, mock.Anything).
		Return(nil, &whatsapp.APIError{Status: 400, Message: "Invalid parameter"})

	_, err := svc.Register(ctx, orderUpdate())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrProvider)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, events.events)
}

func TestRegisterInvalidNeverCallsProvider(t *testing.T) {
	svc, _, provider, _ := newService(t)

	tmpl := orderUpdate()
	tmpl.Buttons = append(tmpl.Buttons,
		domain.Button{Text: "A", Action: domain.QuickReply{}},
		domain.Button{Text: "B", Action: domain.QuickReply{}},
		domain.Button{Text: "C", Action: domain.QuickReply{}},
	)
	_, err := svc.Register(context.Background(), tmpl)
	assert.True(t, errs.IsConfigError(err))
	provider.AssertNotCalled(t, "CreateTemplate", mock.Anything, mock.Anything)
}

func TestUpdatePushesRegisteredTemplates(t *testing.T) {
	svc, repo, provider, _ := newService(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, orderUpdate())
	require.NoError(t, err)

	created.Footer = "Cheers"
	updated, err := svc.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Cheers", updated.Footer)
	provider.AssertNotCalled(t, "UpdateTemplate", mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, repo.SetProviderStatus(ctx, created.ID, "99", domain.StatusApproved))
	provider.On("UpdateTemplate", mock.Anything, "99", mock.Anything).Return(nil).Once()
	created.Footer = "Bye"
	updated, err = svc.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "99", updated.ProviderID)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	provider.AssertExpectations(t)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted remotely then locally", func(t *testing.T) {
		svc, repo, provider, _ := newService(t)
		created, err := repo.Create(ctx, orderUpdate())
		require.NoError(t, err)
		provider.On("DeleteTemplate", mock.Anything, "order_update").Return(nil)

		require.NoError(t, svc.Remove(ctx, created.ID))
		_, err = repo.Get(ctx, created.ID)
		assert.ErrorIs(t, err, errs.ErrTemplateNotFound)
	})

	t.Run("unknown remotely still deleted locally", func(t *testing.T) {
		svc, repo, provider, _ := newService(t)
		created, err := repo.Create(ctx, orderUpdate())
		require.NoError(t, err)
		provider.On("DeleteTemplate", mock.Anything, "order_update").
			Return(&whatsapp.APIError{Status: 404, UserTitle: "Message Template Not Found"})

		require.NoError(t, svc.Remove(ctx, created.ID))
		_, err = repo.Get(ctx, created.ID)
		assert.ErrorIs(t, err, errs.ErrTemplateNotFound)
	})

	t.Run("provider failure keeps local copy", func(t *testing.T) {
		svc, repo, provider, _ := newService(t)
		created, err := repo.Create(ctx, orderUpdate())
		require.NoError(t, err)
		provider.On("DeleteTemplate", mock.Anything, "order_update").
			Return(&whatsapp.APIError{Status: 500, Message: "boom"})

		assert.Error(t, svc.Remove(ctx, created.ID))
		_, err = repo.Get(ctx, created.ID)
		assert.NoError(t, err)
	})
}

func TestPreview(t *testing.T) {
	svc, repo, _, _ := newService(t)
	ctx := context.Background()
	created, err := repo.Create(ctx, orderUpdate())
	require.NoError(t, err)

	comps, err := svc.Preview(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, comps, 3)
	assert.Equal(t, "BODY", comps[0].Type)

	_, err = svc.Preview(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrTemplateNotFound)
}

func TestSync(t *testing.T) {
	svc, repo, provider, _ := newService(t)
	ctx := context.Background()

	existing, err := repo.Create(ctx, orderUpdate())
	require.NoError(t, err)

	provider.On("GetTemplates", mock.Anything).Return([]models.TemplateInfo{
		{
			ID: "1", Name: "order_update", Language: "en_US", Category: "UTILITY", Status: "APPROVED",
			Components: []models.TemplateComponent{
				{Type: "BODY", Text: "Hello {{1}}", Example: &models.TemplateExample{BodyText: [][]string{{"Ann"}}}},
				{Type: "BUTTONS", Buttons: []models.TemplateButton{
					{Type: "QUICK_REPLY", Text: "Stop"},
					{Type: "VOICE_CALL", Text: "Call us"},
					{Type: "FLOW", Text: "Book", FlowID: float64(1234567890123456), FlowAction: "navigate", NavigateScreen: "START"},
				}},
			},
		},
		{
			ID: "2", Name: "spring_cards", Language: "en", Category: "MARKETING", Status: "PENDING",
			Components: []models.TemplateComponent{
				{Type: "BODY", Text: "Our picks"},
				{Type: "CAROUSEL", Cards: []models.TemplateCard{
					{Components: []models.TemplateComponent{
						{Type: "HEADER", Format: "IMAGE", Example: &models.TemplateExample{HeaderHandle: []string{"https://cdn.example.com/1.png"}}},
						{Type: "BODY", Text: "Card {{1}}"},
						{Type: "BUTTONS", Buttons: []models.TemplateButton{{Type: "URL", Text: "Go", URL: "https://x.example.com/{{1}}"}}},
					}},
				}},
			},
		},
	}, nil)

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Created: 1, Updated: 1}, res)

	got, err := repo.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello {{1}}", got.Body)
	assert.Equal(t, "Ann", got.SampleValues)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, "Thanks", got.Footer)
	assert.Equal(t, []domain.Button{
		{Text: "Stop", Action: domain.QuickReply{}},
		{Text: "Book", Action: domain.Flow{FlowID: "1234567890123456", Action: "navigate", NavigateScreen: "START"}},
	}, got.Buttons)

	cards, err := repo.GetByActualName(ctx, "spring_cards")
	require.NoError(t, err)
	assert.True(t, cards.IsCarousel())
	require.Len(t, cards.Cards, 1)
	assert.Equal(t, domain.HeaderImage, cards.Cards[0].HeaderKind)
	assert.Equal(t, "https://cdn.example.com/1.png", cards.Cards[0].HeaderContent)
	assert.Equal(t, []domain.Button{{Text: "Go", Action: domain.URL{URL: "https://x.example.com/{{1}}"}}}, cards.Cards[0].Buttons)

	provider.AssertNotCalled(t, "CreateTemplate", mock.Anything, mock.Anything)
}

func TestSyncKeepsUnchangedCardHandles(t *testing.T) {
	svc, repo, provider, _ := newService(t)
	ctx := context.Background()

	local, err := repo.Create(ctx, domain.Template{
		Name: "Spring Cards", Language: "en", Type: domain.TemplateCarousel, Body: "Our picks",
		Cards: []domain.Card{
			{Index: 1, HeaderKind: domain.HeaderImage, HeaderContent: "https://cdn.example.com/1.png", Body: "One"},
			{Index: 2, HeaderKind: domain.HeaderImage, HeaderContent: "https://cdn.example.com/2.png", Body: "Two"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, repo.SaveHandle(ctx, payload.CardHandleKey(local.Cards[0]), "4::one"))
	require.NoError(t, repo.SaveHandle(ctx, payload.CardHandleKey(local.Cards[1]), "4::two"))

	card := func(ref, body string) models.TemplateCard {
		return models.TemplateCard{Components: []models.TemplateComponent{
			{Type: "HEADER", Format: "IMAGE", Example: &models.TemplateExample{HeaderHandle: []string{ref}}},
			{Type: "BODY", Text: body},
		}}
	}
	provider.On("GetTemplates", mock.Anything).Return([]models.TemplateInfo{{
		ID: "9", Name: "spring_cards", Language: "en", Category: "MARKETING", Status: "APPROVED",
		Components: []models.TemplateComponent{
			{Type: "BODY", Text: "Our picks"},
			{Type: "CAROUSEL", Cards: []models.TemplateCard{
				card("https://cdn.example.com/1.png", "One again"),
				card("https://cdn.example.com/new.png", "Two"),
			}},
		},
	}}, nil)

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Updated: 1}, res)

	got, err := repo.Get(ctx, local.ID)
	require.NoError(t, err)
	require.Len(t, got.Cards, 2)

	assert.Equal(t, local.Cards[0].ID, got.Cards[0].ID)
	assert.Equal(t, "4::one", got.Cards[0].Handle)
	assert.Equal(t, "One again", got.Cards[0].Body)

	assert.NotEqual(t, local.Cards[1].ID, got.Cards[1].ID)
	assert.Empty(t, got.Cards[1].Handle)
	assert.Equal(t, "https://cdn.example.com/new.png", got.Cards[1].HeaderContent)

	h, err := repo.FindHandle(ctx, payload.CardHandleKey(got.Cards[0]))
	require.NoError(t, err)
	assert.Equal(t, "4::one", h)
}
