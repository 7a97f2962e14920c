package notify

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
	"whatsapp-notify/internal/models"
	"whatsapp-notify/internal/payload"
	"whatsapp-notify/internal/repository"
	"whatsapp-notify/internal/whatsapp"
	"whatsapp-notify/internal/ws"
	wire "whatsapp-notify/pkg/models"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) SendTemplate(ctx context.Context, to, name, languageCode string, components []payload.ComponentObj) (*wire.SendResponse, error) {
	args := m.Called(ctx, to, name, languageCode, components)
	resp, _ := args.Get(0).(*wire.SendResponse)
	return resp, args.Error(1)
}

type recorder struct {
	events []string
}

func (r *recorder) BroadcastEvent(eventType string, _ interface{}) {
	r.events = append(r.events, eventType)
}

type fixture struct {
	svc       *Service
	sender    *mockSender
	events    *recorder
	templates *repository.TemplateRepository
	notifs    *repository.NotificationRepository
	messages  *repository.MessageRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notify.db")), &gorm.Config{
		Logger:                                   logger.Discard,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	f := &fixture{
		sender:    &mockSender{},
		events:    &recorder{},
		templates: repository.NewTemplateRepository(db),
		notifs:    repository.NewNotificationRepository(db),
		messages:  repository.NewMessageRepository(db),
	}
	builder := payload.NewBuilder(payload.WithSiteURL("https://erp.example.com"))
	f.svc = NewService(f.notifs, f.templates, f.messages, f.sender, builder, f.events, "https://erp.example.com/", nil)
	return f
}

func sendResponse(t *testing.T, id string) *wire.SendResponse {
	t.Helper()
	var resp wire.SendResponse
	require.NoError(t, json.Unmarshal([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"`+id+`"}]}`), &resp))
	return &resp
}

func (f *fixture) invoice(t *testing.T, enabled bool) domain.Notification {
	t.Helper()
	ctx := context.Background()
	tmpl, err := f.templates.Create(ctx, domain.Template{
		Name:       "Invoice Ready",
		Language:   "en",
		Category:   "UTILITY",
		Type:       domain.TemplateStandard,
		Body:       "Hi {{1}}, total {{2}}",
		HeaderKind: domain.HeaderDocument,
		Buttons:    []domain.Button{{Text: "View", Action: domain.URL{URL: "https://erp.example.com/inv/{{1}}"}}},
	})
	require.NoError(t, err)

	n, err := f.notifs.Create(ctx, domain.Notification{
		Name:             "Invoice Submitted",
		TemplateID:       tmpl.ID,
		DocumentType:     "Sales Invoice",
		Enabled:          enabled,
		PhoneField:       "mobile",
		BodyFields:       []string{"customer", "total"},
		AttachmentSource: domain.AttachDocumentPrint,
		ButtonParams:     []domain.ButtonParam{{Index: 0, Action: domain.URL{URL: "{{name}}"}}},
	})
	require.NoError(t, err)
	return n
}

func invoiceDoc() payload.Document {
	return payload.Document{
		Fields: payload.MapSource{"name": "INV-1", "customer": "Sam", "total": 12.5, "mobile": "+15550100"},
		Key:    "k1",
	}
}

func TestSendTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := f.invoice(t, true)

	f.sender.On("SendTemplate", mock.Anything, "15550100", "invoice_ready", "en", mock.Anything).
		Return(sendResponse(t, "wamid.1"), nil).Once()

	res, err := f.svc.SendTemplate(ctx, SendRequest{NotificationID: n.ID, Document: invoiceDoc(), ReferenceName: "INV-1"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", res.MessageID)
	assert.Equal(t, "15550100", res.Recipient)

	require.Len(t, res.Components, 3)
	assert.Equal(t, "body", res.Components[0].Type)
	assert.Equal(t, "Sam", res.Components[0].Parameters[0].Text)
	assert.Equal(t, "12.5", res.Components[0].Parameters[1].Text)

	doc := res.Components[1].Parameters[0].Document
	require.NotNil(t, doc)
	assert.Equal(t, "https://erp.example.com/api/method/frappe.utils.print_format.download_pdf?doctype=Sales+Invoice&format=Standard&key=k1&name=INV-1", doc.Link)
	assert.Equal(t, "INV-1.pdf", doc.Filename)

	assert.Equal(t, "button", res.Components[2].Type)
	assert.Equal(t, "url", res.Components[2].SubType)
	assert.Equal(t, "INV-1", res.Components[2].Parameters[0].Text)

	msgs, err := f.messages.ListMessages(ctx, "15550100", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "wamid.1", msgs[0].WaID)
	assert.Equal(t, "document", msgs[0].Type)
	assert.Equal(t, n.ID, msgs[0].NotificationID)

	logs, err := f.messages.ListLogs(ctx, n.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "success", logs[0].Status)
	assert.Equal(t, "INV-1", logs[0].ReferenceName)
	assert.Contains(t, logs[0].Response, "wamid.1")

	assert.Equal(t, []string{ws.EventMessageSent}, f.events.events)
	f.sender.AssertExpectations(t)
}

func TestSendTemplateRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t)
		n := f.invoice(t, false)
		_, err := f.svc.SendTemplate(ctx, SendRequest{NotificationID: n.ID, Document: invoiceDoc()})
		assert.ErrorIs(t, err, errs.ErrNotificationDisabled)
		assert.False(t, errs.IsConfigError(err))
		f.sender.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no phone", func(t *testing.T) {
		f := newFixture(t)
		n := f.invoice(t, true)
		doc := invoiceDoc()
		delete(doc.Fields, "mobile")
		_, err := f.svc.SendTemplate(ctx, SendRequest{NotificationID: n.ID, Document: doc})
		assert.True(t, errs.IsConfigError(err))
	})

	t.Run("explicit phone wins", func(t *testing.T) {
		f := newFixture(t)
		n := f.invoice(t, true)
		f.sender.On("SendTemplate", mock.Anything, "4477", "invoice_ready", "en", mock.Anything).
			Return(sendResponse(t, "wamid.2"), nil).Once()
		res, err := f.svc.SendTemplate(ctx, SendRequest{NotificationID: n.ID, Document: invoiceDoc(), Phone: "+4477"})
		require.NoError(t, err)
		assert.Equal(t, "4477", res.Recipient)
	})

	t.Run("unknown notification", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.SendTemplate(ctx, SendRequest{NotificationID: "missing"})
		assert.ErrorIs(t, err, errs.ErrNotificationNotFound)
	})

	t.Run("provider failure is logged", func(t *testing.T) {
		f := newFixture(t)
		n := f.invoice(t, true)
		f.sender.On("SendTemplate", mock.Anything, "15550100", "invoice_ready", "en", mock.Anything).
			Return(nil, &whatsapp.APIError{Status: 400, Message: "Invalid parameter"})

		_, err := f.svc.SendTemplate(ctx, SendRequest{NotificationID: n.ID, Document: invoiceDoc(), ReferenceName: "INV-1"})
		assert.ErrorIs(t, err, errs.ErrProvider)
		assert.False(t, errs.IsConfigError(err))

		logs, err := f.messages.ListLogs(ctx, n.ID, 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "failed", logs[0].Status)
		assert.Contains(t, logs[0].Error, "Invalid parameter")

		msgs, err := f.messages.ListMessages(ctx, "", 10)
		require.NoError(t, err)
		assert.Empty(t, msgs)
		assert.Empty(t, f.events.events)
	})
}

func TestPreviewDoesNotSend(t *testing.T) {
	f := newFixture(t)
	n := f.invoice(t, false)

	res, err := f.svc.Preview(context.Background(), SendRequest{NotificationID: n.ID, Document: invoiceDoc(), ReferenceName: "INV-1"})
	require.NoError(t, err)
	assert.Len(t, res.Components, 3)
	assert.Empty(t, res.MessageID)
	f.sender.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl, err := f.templates.Create(ctx, domain.Template{
		Name: "Book Visit", Language: "en", Type: domain.TemplateStandard, Body: "Pick a slot",
		Buttons: []domain.Button{{Text: "Book", Action: domain.Flow{FlowID: "77"}}},
	})
	require.NoError(t, err)

	n, err := f.svc.CreateNotification(ctx, domain.Notification{
		Name:         "Visit",
		TemplateID:   tmpl.ID,
		Enabled:      true,
		ButtonParams: []domain.ButtonParam{{Index: 0, Action: domain.Flow{FlowID: "77"}}},
	})
	require.NoError(t, err)
	flow, ok := n.ButtonParams[0].Action.(domain.Flow)
	require.True(t, ok)
	assert.NotEmpty(t, flow.Token)

	stored, err := f.svc.GetNotification(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, flow.Token, stored.ButtonParams[0].Action.(domain.Flow).Token)

	_, err = f.svc.CreateNotification(ctx, domain.Notification{Name: "Orphan", TemplateID: "missing"})
	assert.ErrorIs(t, err, errs.ErrTemplateNotFound)

	_, err = f.svc.CreateNotification(ctx, domain.Notification{
		Name:         "Bad",
		TemplateID:   tmpl.ID,
		ButtonParams: []domain.ButtonParam{{Index: 0, Action: domain.QuickReply{}}},
	})
	assert.True(t, errs.IsConfigError(err))

	list, err := f.svc.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSendSimple(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl, err := f.templates.Create(ctx, domain.Template{
		Name: "Weekly Deals", Language: "en", Type: domain.TemplateStandard, Body: "New deals are live",
		Buttons: []domain.Button{{Text: "Stop", Action: domain.QuickReply{}}},
	})
	require.NoError(t, err)

	f.sender.On("SendTemplate", mock.Anything, "111", "weekly_deals", "en", mock.Anything).
		Return(sendResponse(t, "wamid.a"), nil).Once()
	f.sender.On("SendTemplate", mock.Anything, "222", "weekly_deals", "en", mock.Anything).
		Return(nil, &whatsapp.APIError{Status: 400, Message: "not a WhatsApp user"}).Once()

	res, err := f.svc.SendSimple(ctx, SimpleRequest{
		TemplateID:   tmpl.ID,
		Numbers:      []string{"+111", "222", " "},
		ButtonParams: []domain.ButtonParam{{Index: 0, Action: domain.QuickReply{Payload: "stop"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, res.Errors["222"], "not a WhatsApp user")

	comps := f.sender.Calls[0].Arguments.Get(4).([]payload.ComponentObj)
	require.Len(t, comps, 1)
	assert.Equal(t, "quick_reply", comps[0].SubType)
	assert.Equal(t, "stop", comps[0].Parameters[0].Payload)
	f.sender.AssertExpectations(t)
}

func TestSendSimpleChecksButtonParams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl, err := f.templates.Create(ctx, domain.Template{
		Name: "Renewal", Language: "en", Type: domain.TemplateStandard, Body: "Your plan renews soon",
		Buttons: []domain.Button{
			{Text: "Stop", Action: domain.QuickReply{}},
			{Text: "Renew", Action: domain.URL{URL: "https://erp.example.com/renew/{{1}}"}},
		},
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		params []domain.ButtonParam
		field  string
	}{
		{
			name:   "missing parameter",
			params: []domain.ButtonParam{{Index: 0, Action: domain.QuickReply{Payload: "stop"}}},
			field:  "button_parameters",
		},
		{
			name: "wrong type",
			params: []domain.ButtonParam{
				{Index: 0, Action: domain.QuickReply{Payload: "stop"}},
				{Index: 1, Action: domain.PhoneNumber{PhoneNumber: "15550100"}},
			},
			field: "type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendSimple(ctx, SimpleRequest{
				TemplateID:   tmpl.ID,
				Numbers:      []string{"111", "222"},
				ButtonParams: tt.params,
			})
			var ce *errs.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
	f.sender.AssertNotCalled(t, "SendTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	f.sender.On("SendTemplate", mock.Anything, "111", "renewal", "en", mock.Anything).
		Return(sendResponse(t, "wamid.r"), nil).Once()
	res, err := f.svc.SendSimple(ctx, SimpleRequest{
		TemplateID: tmpl.ID,
		Numbers:    []string{"111"},
		ButtonParams: []domain.ButtonParam{
			{Index: 1, Action: domain.URL{URL: "acme-42"}},
			{Index: 0, Action: domain.QuickReply{Payload: "stop"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	comps := f.sender.Calls[0].Arguments.Get(4).([]payload.ComponentObj)
	require.Len(t, comps, 2)
	assert.Equal(t, "0", comps[0].Index)
	assert.Equal(t, "1", comps[1].Index)
	assert.Equal(t, "acme-42", comps[1].Parameters[0].Text)
}

func TestSendSimpleToTaggedContacts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tmpl, err := f.templates.Create(ctx, domain.Template{
		Name: "Hello", Language: "en", Type: domain.TemplateStandard, Body: "Hello there",
	})
	require.NoError(t, err)
	require.NoError(t, f.messages.SaveContact(ctx, &models.Contact{WaID: "333", Tags: "vip"}))

	f.sender.On("SendTemplate", mock.Anything, "333", "hello", "en", []payload.ComponentObj(nil)).
		Return(sendResponse(t, "wamid.v"), nil).Once()

	res, err := f.svc.SendSimple(ctx, SimpleRequest{TemplateID: tmpl.ID, Tag: "vip"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	f.sender.AssertExpectations(t)
}
