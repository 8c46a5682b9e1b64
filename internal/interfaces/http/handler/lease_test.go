package handler

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

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	appleasing "github.com/estate/backend/internal/application/leasing"
	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/infrastructure/persistence/memory"
	"github.com/estate/backend/internal/interfaces/http/dto"
	"github.com/estate/backend/internal/interfaces/http/middleware"
)

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Put(ctx context.Context, data []byte, suggestedName string) (string, error) {
	args := m.Called(ctx, data, suggestedName)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockDocumentStore) PublicURL(path string) string {
	args := m.Called(path)
	return args.String(0)
}

type leaseHandlerFixture struct {
	router   *gin.Engine
	store    *memory.Store
	docs     *MockDocumentStore
	property *leasing.Property
}

func newLeaseHandlerFixture(t *testing.T, maxDocumentSize int64) *leaseHandlerFixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := memory.NewStore()
	docs := new(MockDocumentStore)

	properties := appleasing.NewPropertyService(store, nil, log)
	provisioning := appleasing.NewProvisioningService(store, docs, appleasing.DefaultProvisioningConfig(), log)
	h := NewLeaseHandler(appleasing.NewLeaseService(store, provisioning, properties, log), maxDocumentSize)

	city := "Porto"
	rent := decimal.NewFromInt(950)
	saved, err := properties.Create(context.Background(), leasing.PropertyDraft{
		Title:       "T1 Bonfim",
		City:        &city,
		ListingType: leasing.ListingRental,
		RentAmount:  &rent,
	})
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/leases", h.Provision)
	return &leaseHandlerFixture{router: r, store: store, docs: docs, property: saved.Property}
}

func (f *leaseHandlerFixture) payload() string {
	return `{"tenant":{"name":"Marta Sousa"},"lease":{"property_id":"` + f.property.ID.String() +
		`","start_date":"2026-01-01","end_date":"2026-12-31","rent_amount":"950"}}`
}

func multipartBody(t *testing.T, fields map[string]string, document []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if document != nil {
		fw, err := mw.CreateFormFile(FormFieldDocument, "signed.pdf")
		require.NoError(t, err)
		_, err = fw.Write(document)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (f *leaseHandlerFixture) post(body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/leases", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestLeaseHandler_Provision_UploadFailureRollsBack(t *testing.T) {
	f := newLeaseHandlerFixture(t, 1<<10)
	document := []byte("%PDF-1.7")
	f.docs.On("Put", mock.Anything, document, "signed.pdf").Return("", errors.New("bucket unavailable"))

	body, ct := multipartBody(t, map[string]string{FormFieldPayload: f.payload()}, document)
	w := f.post(body, ct)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrCodeDocumentAttachFailed, decodeError(t, w).Code)

	tenants, contracts, _ := f.store.Counts()
	assert.Zero(t, tenants)
	assert.Zero(t, contracts)
	f.docs.AssertExpectations(t)
	f.docs.AssertNotCalled(t, "PublicURL", mock.Anything)
}

func TestLeaseHandler_Provision_WithDocument(t *testing.T) {
	f := newLeaseHandlerFixture(t, 1<<10)
	document := []byte("%PDF-1.7")
	f.docs.On("Put", mock.Anything, document, "signed.pdf").Return("leases/2026/01/doc.pdf", nil)
	f.docs.On("PublicURL", "leases/2026/01/doc.pdf").Return("https://docs.example.com/leases/2026/01/doc.pdf")

	body, ct := multipartBody(t, map[string]string{FormFieldPayload: f.payload()}, document)
	w := f.post(body, ct)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Data ProvisionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://docs.example.com/leases/2026/01/doc.pdf", resp.Data.DocumentURL)
	assert.Equal(t, "leases/2026/01/doc.pdf", resp.Data.Contract.DocumentPath)
	f.docs.AssertExpectations(t)
}

func TestLeaseHandler_Provision_MultipartErrors(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		document   []byte
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing payload",
			fields:     map[string]string{},
			document:   []byte("%PDF"),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
		{
			name:       "malformed payload",
			fields:     map[string]string{FormFieldPayload: "{"},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeInvalidJSON,
		},
		{
			name:       "document over the limit",
			document:   bytes.Repeat([]byte("x"), 64),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   dto.ErrCodePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLeaseHandlerFixture(t, 32)
			fields := tt.fields
			if fields == nil {
				fields = map[string]string{FormFieldPayload: f.payload()}
			}
			body, ct := multipartBody(t, fields, tt.document)
			w := f.post(body, ct)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			f.docs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
			tenants, _, _ := f.store.Counts()
			assert.Zero(t, tenants)
		})
	}
}

func TestLeaseHandler_Provision_JSONWithoutDocument(t *testing.T) {
	f := newLeaseHandlerFixture(t, 1<<10)

	w := f.post(bytes.NewBufferString(f.payload()), "application/json")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.False(t, strings.Contains(w.Body.String(), "document_url\":\"http"))
	f.docs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}
