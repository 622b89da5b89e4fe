package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud-the-dev/Propmatch/internal/dtos"
	"github.com/mahmoud-the-dev/Propmatch/internal/middleware"
	"github.com/mahmoud-the-dev/Propmatch/internal/models"
	"github.com/mahmoud-the-dev/Propmatch/internal/routes"
	"github.com/mahmoud-the-dev/Propmatch/internal/services"
)

/* ------------------------------------------------------------------
   In-memory fakes wired under a real service + router
------------------------------------------------------------------ */

type memPropertyRepo struct {
	items  map[uuid.UUID]*models.Property
	images *memImageRepo
}

func (m *memPropertyRepo) Create(_ context.Context, p *models.Property) error {
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memPropertyRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	if p, ok := m.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memPropertyRepo) GetByIDForOwner(_ context.Context, id, ownerID uuid.UUID) (*models.Property, error) {
	if p, ok := m.items[id]; ok && p.OwnerID == ownerID {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memPropertyRepo) ListByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*models.Property, error) {
	var out []*models.Property
	for _, p := range m.items {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPropertyRepo) Search(_ context.Context, _ models.PropertyFilter) ([]*models.Property, error) {
	var out []*models.Property
	for _, p := range m.items {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPropertyRepo) Update(_ context.Context, p *models.Property) (int64, error) {
	existing, ok := m.items[p.ID]
	if !ok || existing.OwnerID != p.OwnerID {
		return 0, nil
	}
	cp := *p
	m.items[p.ID] = &cp
	return 1, nil
}

func (m *memPropertyRepo) Delete(_ context.Context, id, ownerID uuid.UUID) (int64, error) {
	existing, ok := m.items[id]
	if !ok || existing.OwnerID != ownerID {
		return 0, nil
	}
	delete(m.items, id)
	delete(m.images.rows, id)
	return 1, nil
}

type memImageRepo struct {
	rows map[uuid.UUID][]string
}

func (m *memImageRepo) CreateMany(_ context.Context, propertyID uuid.UUID, urls []string) error {
	m.rows[propertyID] = append(m.rows[propertyID], urls...)
	return nil
}

func (m *memImageRepo) ListByPropertyID(_ context.Context, propertyID uuid.UUID) ([]*models.PropertyImage, error) {
	var out []*models.PropertyImage
	for _, u := range m.rows[propertyID] {
		out = append(out, &models.PropertyImage{ID: uuid.New(), PropertyID: propertyID, URL: u})
	}
	return out, nil
}

func (m *memImageRepo) ListURLsByPropertyID(_ context.Context, propertyID uuid.UUID) ([]string, error) {
	return append([]string(nil), m.rows[propertyID]...), nil
}

func (m *memImageRepo) ListAllURLs(_ context.Context) ([]string, error) {
	var out []string
	for _, urls := range m.rows {
		out = append(out, urls...)
	}
	return out, nil
}

func (m *memImageRepo) DeleteByURLs(_ context.Context, propertyID uuid.UUID, urls []string) error {
	drop := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		drop[u] = struct{}{}
	}
	var kept []string
	for _, u := range m.rows[propertyID] {
		if _, gone := drop[u]; !gone {
			kept = append(kept, u)
		}
	}
	m.rows[propertyID] = kept
	return nil
}

type memObjectStore struct {
	objects map[string][]byte
	failAll bool
}

func (m *memObjectStore) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	if m.failAll {
		return "", errors.New("store unavailable")
	}
	m.objects[key] = data
	return "https://cdn.propmatch.test/" + key, nil
}

func (m *memObjectStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type noopCache struct{}

func (noopCache) GetOwnerListings(context.Context, uuid.UUID) ([]byte, bool) { return nil, false }
func (noopCache) SetOwnerListings(context.Context, uuid.UUID, []byte)       {}
func (noopCache) InvalidateOwner(context.Context, uuid.UUID)                {}

/* ------------------------------------------------------------------
   Harness
------------------------------------------------------------------ */

type controllerFixture struct {
	router *mux.Router
	props  *memPropertyRepo
	store  *memObjectStore
}

// identityAs stamps every request with the given subject, standing in for
// the JWT middleware.
func identityAs(ownerID uuid.UUID) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.ContextKeyUserID, ownerID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newControllerFixture(ownerID uuid.UUID) *controllerFixture {
	images := &memImageRepo{rows: map[uuid.UUID][]string{}}
	props := &memPropertyRepo{items: map[uuid.UUID]*models.Property{}, images: images}
	store := &memObjectStore{objects: map[string][]byte{}}

	svc := services.NewPropertyService(props, images, store, noopCache{})
	pc := NewPropertiesController(svc)

	router := mux.NewRouter()
	router.HandleFunc(routes.PropertiesSearch, pc.SearchPropertiesHandler).Methods(http.MethodGet)

	// /my must be registered before /{id} so the literal segment wins
	secured := router.NewRoute().Subrouter()
	secured.Use(identityAs(ownerID))
	secured.HandleFunc(routes.PropertiesMy, pc.ListMyPropertiesHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.PropertiesBase, pc.CreatePropertyHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.PropertyByID, pc.UpdatePropertyHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.PropertyByID, pc.DeletePropertyHandler).Methods(http.MethodDelete)

	router.HandleFunc(routes.PropertyByID, pc.GetPropertyHandler).Methods(http.MethodGet)

	return &controllerFixture{router: router, props: props, store: store}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func validFormFields() map[string]string {
	return map[string]string{
		"title":    "Harbor Flat",
		"address":  "2 Pier Rd",
		"city":     "Almaty",
		"rating":   "4",
		"price":    "120.50",
		"bedrooms": "1",
	}
}

func (fx *controllerFixture) do(method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

/* ------------------------------------------------------------------
   Tests
------------------------------------------------------------------ */

func TestCreatePropertyEndpoint(t *testing.T) {
	fx := newControllerFixture(uuid.New())

	body, ct := multipartBody(t, validFormFields(), map[string][]byte{"front.jpg": []byte("jpeg")})
	rec := fx.do(http.MethodPost, routes.PropertiesBase, body, ct)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dtos.PropertyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Harbor Flat", resp.Title)
	assert.Len(t, resp.Images, 1)
	assert.Len(t, fx.store.objects, 1)
}

func TestCreatePropertyEndpointValidation(t *testing.T) {
	fx := newControllerFixture(uuid.New())

	fields := validFormFields()
	fields["rating"] = "9" // out of range
	body, ct := multipartBody(t, fields, nil)
	rec := fx.do(http.MethodPost, routes.PropertiesBase, body, ct)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestCreatePropertyEndpointUploadFailure(t *testing.T) {
	fx := newControllerFixture(uuid.New())
	fx.store.failAll = true

	body, ct := multipartBody(t, validFormFields(), map[string][]byte{"front.jpg": []byte("jpeg")})
	rec := fx.do(http.MethodPost, routes.PropertiesBase, body, ct)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload_failed")
	// nothing persisted
	assert.Empty(t, fx.props.items)
}

func TestUpdatePropertyEndpointNotOwned(t *testing.T) {
	fx := newControllerFixture(uuid.New())

	// property belongs to somebody else
	foreign := &models.Property{ID: uuid.New(), OwnerID: uuid.New(), Title: "Theirs", Rating: 3, Price: 1}
	require.NoError(t, fx.props.Create(context.Background(), foreign))

	body, ct := multipartBody(t, map[string]string{"title": "Mine Now"}, nil)
	rec := fx.do(http.MethodPut, "/api/v1/properties/"+foreign.ID.String(), body, ct)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestDeletePropertyEndpoint(t *testing.T) {
	ownerID := uuid.New()
	fx := newControllerFixture(ownerID)

	p := &models.Property{ID: uuid.New(), OwnerID: ownerID, Title: "Mine", Rating: 3, Price: 1}
	require.NoError(t, fx.props.Create(context.Background(), p))

	rec := fx.do(http.MethodDelete, "/api/v1/properties/"+p.ID.String(), nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = fx.do(http.MethodGet, "/api/v1/properties/"+p.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPropertyEndpointInvalidID(t *testing.T) {
	fx := newControllerFixture(uuid.New())
	rec := fx.do(http.MethodGet, "/api/v1/properties/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_payload")
}

func TestSearchPropertiesEndpoint(t *testing.T) {
	ownerID := uuid.New()
	fx := newControllerFixture(ownerID)

	p := &models.Property{ID: uuid.New(), OwnerID: ownerID, Title: "Listed", Rating: 5, Price: 80}
	require.NoError(t, fx.props.Create(context.Background(), p))

	rec := fx.do(http.MethodGet, routes.PropertiesSearch+"?city=Almaty&min_rating=4", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dtos.ListPropertiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Properties, 1)
	assert.Equal(t, "Listed", resp.Properties[0].Title)
}

func TestParsePropertyFilterPaging(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantPage int
		wantSize int
	}{
		{"defaults", "", 1, models.DefaultPageSize},
		{"explicit", "page=3&size=20", 3, 20},
		{"oversized clamped", "size=1000000", 1, models.MaxPageSize},
		{"negative normalized", "page=-2&size=-5", 1, models.DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/properties?"+tt.query, nil)
			f := parsePropertyFilter(req)
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantSize, f.Size)
		})
	}
}

func TestListMyPropertiesEndpoint(t *testing.T) {
	ownerID := uuid.New()
	fx := newControllerFixture(ownerID)

	mine := &models.Property{ID: uuid.New(), OwnerID: ownerID, Title: "Mine", Rating: 4, Price: 10}
	theirs := &models.Property{ID: uuid.New(), OwnerID: uuid.New(), Title: "Theirs", Rating: 4, Price: 10}
	require.NoError(t, fx.props.Create(context.Background(), mine))
	require.NoError(t, fx.props.Create(context.Background(), theirs))

	rec := fx.do(http.MethodGet, routes.PropertiesMy, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dtos.ListPropertiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Properties, 1)
	assert.Equal(t, "Mine", resp.Properties[0].Title)
}
