package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	financeapp "github.com/autoexport/backend/internal/application/finance"
	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/interfaces/http/dto"
	"github.com/autoexport/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInvoiceUseCase struct {
	mock.Mock
}

func (m *MockInvoiceUseCase) invoiceResult(args mock.Arguments) (*financeapp.InvoiceResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceUseCase) Create(ctx context.Context, req financeapp.CreateInvoiceRequest) (*financeapp.InvoiceResponse, error) {
	return m.invoiceResult(m.Called(ctx, req))
}

func (m *MockInvoiceUseCase) Get(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error) {
	return m.invoiceResult(m.Called(ctx, id))
}

func (m *MockInvoiceUseCase) GetCostInvoice(ctx context.Context, invoiceID uuid.UUID) (*financeapp.CostInvoiceResponse, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.CostInvoiceResponse), args.Error(1)
}

func (m *MockInvoiceUseCase) Update(ctx context.Context, id uuid.UUID, patch finance.InvoicePatch) (*financeapp.InvoiceResponse, error) {
	return m.invoiceResult(m.Called(ctx, id, patch))
}

func (m *MockInvoiceUseCase) Cancel(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error) {
	return m.invoiceResult(m.Called(ctx, id))
}

func (m *MockInvoiceUseCase) Submit(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error) {
	return m.invoiceResult(m.Called(ctx, id))
}

func (m *MockInvoiceUseCase) Approve(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error) {
	return m.invoiceResult(m.Called(ctx, id))
}

func (m *MockInvoiceUseCase) Finalize(ctx context.Context, id uuid.UUID) (*financeapp.InvoiceResponse, error) {
	return m.invoiceResult(m.Called(ctx, id))
}

type MockSharedInvoiceUseCase struct {
	mock.Mock
}

func (m *MockSharedInvoiceUseCase) Create(ctx context.Context, req financeapp.CreateSharedInvoiceRequest) (*financeapp.SharedInvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.SharedInvoiceResponse), args.Error(1)
}

func (m *MockSharedInvoiceUseCase) Update(ctx context.Context, id uuid.UUID, patch finance.SharedInvoicePatch) (*financeapp.SharedInvoiceResponse, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.SharedInvoiceResponse), args.Error(1)
}

type MockContainerInvoiceUseCase struct {
	mock.Mock
}

func (m *MockContainerInvoiceUseCase) Create(ctx context.Context, req financeapp.CreateContainerInvoiceRequest) (*financeapp.ContainerInvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.ContainerInvoiceResponse), args.Error(1)
}

type MockTransactionUseCase struct {
	mock.Mock
}

func (m *MockTransactionUseCase) result(args mock.Arguments) (*financeapp.TransactionResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.TransactionResult), args.Error(1)
}

func (m *MockTransactionUseCase) Record(ctx context.Context, req financeapp.RecordTransactionRequest) (*financeapp.TransactionResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockTransactionUseCase) Update(ctx context.Context, id uuid.UUID, patch finance.TransactionPatch) (*financeapp.TransactionResult, error) {
	return m.result(m.Called(ctx, id, patch))
}

func (m *MockTransactionUseCase) Delete(ctx context.Context, id uuid.UUID) (*financeapp.TransactionResult, error) {
	return m.result(m.Called(ctx, id))
}

var (
	_ InvoiceUseCase          = (*MockInvoiceUseCase)(nil)
	_ SharedInvoiceUseCase    = (*MockSharedInvoiceUseCase)(nil)
	_ ContainerInvoiceUseCase = (*MockContainerInvoiceUseCase)(nil)
	_ TransactionUseCase      = (*MockTransactionUseCase)(nil)
	_ InvoiceUseCase          = (*financeapp.InvoiceService)(nil)
	_ SharedInvoiceUseCase    = (*financeapp.SharedInvoiceService)(nil)
	_ ContainerInvoiceUseCase = (*financeapp.ContainerInvoiceService)(nil)
	_ TransactionUseCase      = (*financeapp.TransactionService)(nil)
)

func setupTestRouter(registrars ...interface{ RegisterRoutes(*gin.RouterGroup) }) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	for _, reg := range registrars {
		reg.RegisterRoutes(api)
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

// dataOf decodes the data field of a success response into out
func dataOf(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}
