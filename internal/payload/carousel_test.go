package payload

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whatsapp-notify/internal/domain"
	"whatsapp-notify/internal/errs"
	"whatsapp-notify/internal/media"
)

type mockHandleStore struct {
	mock.Mock
}

func (m *mockHandleStore) GetOrUpload(ctx context.Context, key, contentRef string) (string, error) {
	args := m.Called(ctx, key, contentRef)
	return args.String(0), args.Error(1)
}

func intPtr(i int) *int { return &i }

func promoTemplate() domain.Template {
	return domain.Template{
		ID:   "tpl-1",
		Name: "Spring Promo",
		Type: domain.TemplateCarousel,
		Body: "Deals for you",
		Cards: []domain.Card{
			{
				ID:         "card-b",
				Index:      1,
				HeaderKind: domain.HeaderText,
				HeaderText: "Sale",
				Body:       "Save now",
			},
			{
				ID:            "card-a",
				Index:         0,
				HeaderKind:    domain.HeaderImage,
				HeaderContent: "https://cdn.example.com/a.png",
				Body:          "Hi {{1}}",
				Buttons: []domain.Button{
					{Text: "Shop", Action: domain.QuickReply{Payload: "shop"}},
				},
			},
		},
	}
}

func TestBuildCarousel_EndToEnd(t *testing.T) {
	t.Parallel()

	store := &mockHandleStore{}
	store.On("GetOrUpload", mock.Anything, "card:card-a", "https://cdn.example.com/a.png").Return("4::handle-a", nil).Once()

	b := NewBuilder(WithHandleStore(store))
	params := []domain.CarouselParameter{
		{Kind: domain.ParamBodyVariable, Variable: "{{1}}", FieldName: "lead_name"},
	}
	got, err := b.BuildCarousel(context.Background(), promoTemplate(), params, MapSource{"lead_name": "Sam"})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "CAROUSEL", got.Type)
	require.Len(t, got.Cards, 2)

	first := got.Cards[0].Components
	require.Len(t, first, 3)
	assert.Equal(t, ComponentObj{
		Type:    "header",
		Format:  "image",
		Example: &ExampleObj{HeaderHandle: []string{"4::handle-a"}},
	}, first[0])
	assert.Equal(t, "Hi Sam", first[1].Text)
	assert.Nil(t, first[1].Example)
	assert.Equal(t, []ButtonObj{{Type: "QUICK_REPLY", Text: "Shop"}}, first[2].Buttons)

	second := got.Cards[1].Components
	require.Len(t, second, 3)
	assert.Equal(t, ComponentObj{Type: "header", Text: "Sale"}, second[0])
	assert.Equal(t, "Save now", second[1].Text)
	assert.Equal(t, ComponentObj{
		Type:    "buttons",
		Buttons: []ButtonObj{{Type: "QUICK_REPLY", Text: "Learn More"}},
	}, second[2])

	store.AssertExpectations(t)
}

func TestBuildCarousel_NoCards(t *testing.T) {
	t.Parallel()

	got, err := NewBuilder().BuildCarousel(context.Background(), domain.Template{Type: domain.TemplateCarousel}, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestBuildCarousel_Validation(t *testing.T) {
	t.Parallel()

	b := NewBuilder()

	eleven := domain.Template{Type: domain.TemplateCarousel}
	for i := 0; i < 11; i++ {
		eleven.Cards = append(eleven.Cards, domain.Card{Index: i, Body: "x"})
	}
	_, err := b.BuildCarousel(context.Background(), eleven, nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsConfigError(err))
	assert.Contains(t, err.Error(), "11")

	quick := domain.Button{Text: "Go", Action: domain.QuickReply{}}
	crowded := domain.Template{Type: domain.TemplateCarousel, Cards: []domain.Card{
		{Index: 0, Body: "ok"},
		{Index: 3, Body: "x", Buttons: []domain.Button{quick, quick, quick}},
	}}
	got, err := b.BuildCarousel(context.Background(), crowded, nil, nil)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "card 3")
}

func TestBuildCard_ZeroButtonsGetsFallback(t *testing.T) {
	t.Parallel()

	card := NewBuilder().BuildCard(context.Background(), domain.Card{Index: 0, Body: "Only text"}, Classify(nil, nil), nil)
	var buttons []ButtonObj
	for _, c := range card.Components {
		if c.Type == "buttons" {
			buttons = append(buttons, c.Buttons...)
		}
	}
	assert.Equal(t, []ButtonObj{{Type: "QUICK_REPLY", Text: "Learn More"}}, buttons)
}

func TestBuildCard_HandlePriority(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	card := domain.Card{ID: "c1", Index: 2, HeaderKind: domain.HeaderVideo, HeaderContent: "/files/clip.mp4", Body: "b"}

	t.Run("cached handle wins", func(t *testing.T) {
		store := &mockHandleStore{}
		cached := card
		cached.Handle = "4::cached"
		got := NewBuilder(WithHandleStore(store)).BuildCard(ctx, cached, Classify(nil, nil), nil)
		assert.Equal(t, []string{"4::cached"}, got.Components[0].Example.HeaderHandle)
		store.AssertNotCalled(t, "GetOrUpload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("upload failure falls back to raw reference", func(t *testing.T) {
		store := &mockHandleStore{}
		store.On("GetOrUpload", mock.Anything, "card:c1", "/files/clip.mp4").Return("", errors.New("boom"))
		got := NewBuilder(WithHandleStore(store)).BuildCard(ctx, card, Classify(nil, nil), nil)
		assert.Equal(t, "video", got.Components[0].Format)
		assert.Equal(t, []string{"/files/clip.mp4"}, got.Components[0].Example.HeaderHandle)
	})

	t.Run("no store uses raw reference", func(t *testing.T) {
		got := NewBuilder().BuildCard(ctx, card, Classify(nil, nil), nil)
		assert.Equal(t, []string{"/files/clip.mp4"}, got.Components[0].Example.HeaderHandle)
	})
}

func TestBuildCard_UnresolvedMarkersGetSamples(t *testing.T) {
	t.Parallel()

	card := domain.Card{Index: 0, Body: "Hi {{1}}, code {{2}}"}
	cls := Classify([]domain.CarouselParameter{
		{Kind: domain.ParamCardBody, Variable: "{{1}}", CardIndex: intPtr(5), Default: "other card"},
	}, nil)
	got := NewBuilder().BuildCard(context.Background(), card, cls, nil)
	body := got.Components[0]
	assert.Equal(t, "Hi {{1}}, code {{2}}", body.Text)
	assert.Equal(t, [][]string{{"Sample1", "Sample2"}}, body.Example.BodyText)
}

func TestBuildSendCarousel(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	params := []domain.CarouselParameter{
		{Kind: domain.ParamBodyVariable, Variable: "{{1}}", FieldName: "lead_name"},
	}
	tmpl := promoTemplate()
	got, err := b.BuildSendCarousel(context.Background(), tmpl, params, MapSource{"lead_name": "Sam"})
	require.NoError(t, err)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "carousel",
		"cards": [
			{"card_index": 0, "components": [
				{"type": "header", "parameters": [{"type": "image", "image": {"link": "https://cdn.example.com/a.png"}}]},
				{"type": "body", "parameters": [{"type": "text", "text": "Sam"}]},
				{"type": "button", "sub_type": "quick_reply", "index": "0", "parameters": [{"type": "payload", "payload": "shop"}]}
			]},
			{"card_index": 1, "components": []}
		]
	}`, string(raw))
}

func TestBuildSendCarousel_UnboundCardVariable(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder().BuildSendCarousel(context.Background(), promoTemplate(), nil, MapSource{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card 0")
	assert.Contains(t, err.Error(), "{{1}}")
}

func TestClassify(t *testing.T) {
	t.Parallel()

	doc := Document{
		Fields:    MapSource{"first_name": "Ana", "city": ""},
		Formatted: map[string]string{"due": "1 Jan 2025"},
	}
	cls := Classify([]domain.CarouselParameter{
		{Kind: domain.ParamBodyVariable, Variable: "{{1}}", FieldName: "first_name"},
		{Kind: domain.ParamBodyVariable, Variable: "{{2}}", FieldName: "city", Default: "your city"},
		{Kind: domain.ParamCardHeader, Variable: "{{1}}", CardIndex: intPtr(0), Default: "Hot"},
		{Kind: domain.ParamCardBody, Variable: "{{1}}", CardIndex: intPtr(2), FieldName: "due"},
	}, doc)

	assert.Equal(t, map[string]string{"{{1}}": "Ana", "{{2}}": "your city"}, cls.BodyVariables)
	assert.Equal(t, map[string]string{"{{1}}": "Hot"}, cls.CardHeaders["card_0"])
	assert.Equal(t, map[string]string{"{{1}}": "1 Jan 2025"}, cls.CardBodies["card_2"])
}

type refLoader struct{}

func (refLoader) Load(_ context.Context, ref string) (media.File, error) {
	return media.File{Name: ref, MimeType: "image/png", Data: []byte(ref)}, nil
}

type echoUploader struct{ uploads int }

func (u *echoUploader) UploadResumable(_ context.Context, fileName, _ string, _ []byte) (string, error) {
	u.uploads++
	return "h-" + fileName, nil
}

func TestBuildCarousel_UnsavedCardsKeepTheirOwnMedia(t *testing.T) {
	t.Parallel()

	uploader := &echoUploader{}
	b := NewBuilder(WithHandleStore(media.NewHandleCache(refLoader{}, uploader)))
	tmpl := domain.Template{
		Name: "Draft",
		Type: domain.TemplateCarousel,
		Body: "Picks",
		Cards: []domain.Card{
			{Index: 0, HeaderKind: domain.HeaderImage, HeaderContent: "https://a/1.png", Body: "One"},
			{Index: 1, HeaderKind: domain.HeaderImage, HeaderContent: "https://a/2.png", Body: "Two"},
		},
	}

	headerHandle := func(c CardObj) string {
		return c.Components[0].Example.HeaderHandle[0]
	}

	got, err := b.BuildCarousel(context.Background(), tmpl, nil, nil)
	require.NoError(t, err)
	require.Len(t, got.Cards, 2)
	assert.Equal(t, "h-https://a/1.png", headerHandle(got.Cards[0]))
	assert.Equal(t, "h-https://a/2.png", headerHandle(got.Cards[1]))

	// the same references are served from the cache on the next build
	got, err = b.BuildCarousel(context.Background(), tmpl, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "h-https://a/2.png", headerHandle(got.Cards[1]))
	assert.Equal(t, 2, uploader.uploads)
}

func TestHandleKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "card:c1", CardHandleKey(domain.Card{ID: "c1", HeaderContent: "/files/a.png"}))
	assert.Equal(t, "ref:/files/a.png", CardHandleKey(domain.Card{HeaderContent: "/files/a.png"}))
	assert.Equal(t, "template:t1", TemplateHandleKey(domain.Template{ID: "t1", HeaderSample: "/files/s.pdf"}))
	assert.Equal(t, "ref:/files/s.pdf", TemplateHandleKey(domain.Template{HeaderSample: "/files/s.pdf"}))
}
