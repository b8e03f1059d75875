package handler

import (
	"net/http"
	"testing"
	"time"

	financeapp "github.com/autoexport/backend/internal/application/finance"
	"github.com/autoexport/backend/internal/domain/finance"
	"github.com/autoexport/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSharedInvoiceHandler_Create(t *testing.T) {
	svc := new(MockSharedInvoiceUseCase)
	r := setupTestRouter(NewSharedInvoiceHandler(svc))
	vendorID := uuid.New()
	v1, v2 := uuid.New(), uuid.New()
	invoiceDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	svc.On("Create", mock.Anything, mock.MatchedBy(func(req financeapp.CreateSharedInvoiceRequest) bool {
		return req.Type == "CONTAINER" &&
			req.TotalAmount.Equal(decimal.NewFromInt(300000)) &&
			req.VendorID == vendorID.String() &&
			req.CostItems == "freight" &&
			assert.ObjectsAreEqual([]uuid.UUID{v1, v2}, req.VehicleIDs) &&
			req.InvoiceDate.Equal(invoiceDate) &&
			req.AllocationMethod == finance.AllocationMethodEqual
	})).Return(&financeapp.SharedInvoiceResponse{
		InvoiceNumber: "CONTAINER-2026-001",
		TotalAmount:   decimal.NewFromInt(300000),
	}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/shared-invoices", map[string]any{
		"type":              "CONTAINER",
		"total_amount":      "300000",
		"invoice_date":      invoiceDate.Format(time.RFC3339),
		"metadata":          map[string]string{"vendorId": vendorID.String(), "costItems": "freight"},
		"vehicle_ids":       []string{v1.String(), v2.String()},
		"allocation_method": "equal",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got financeapp.SharedInvoiceResponse
	dataOf(t, w, &got)
	assert.Equal(t, "CONTAINER-2026-001", got.InvoiceNumber)
	svc.AssertExpectations(t)
}

func TestSharedInvoiceHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]any
		svcErr  error
		status  int
		code    string
		callSvc bool
	}{
		{
			name:   "missing type",
			body:   map[string]any{"total_amount": "10"},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "malformed vehicle id",
			body:   map[string]any{"type": "CUSTOMS", "vehicle_ids": []string{"v-1"}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:    "missing vendor",
			body:    map[string]any{"type": "CUSTOMS", "total_amount": "10", "vehicle_ids": []string{uuid.NewString()}},
			svcErr:  finance.ErrMissingVendor,
			status:  http.StatusBadRequest,
			code:    finance.CodeMissingVendor,
			callSvc: true,
		},
		{
			name:    "empty vehicle list",
			body:    map[string]any{"type": "CUSTOMS", "total_amount": "10", "metadata": map[string]string{"vendorId": uuid.NewString()}},
			svcErr:  finance.ErrEmptyVehicleList,
			status:  http.StatusBadRequest,
			code:    finance.CodeEmptyVehicleList,
			callSvc: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSharedInvoiceUseCase)
			r := setupTestRouter(NewSharedInvoiceHandler(svc))
			if tt.callSvc {
				svc.On("Create", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}

			w := doJSON(t, r, http.MethodPost, "/api/v1/shared-invoices", tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
			if !tt.callSvc {
				svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSharedInvoiceHandler_Update(t *testing.T) {
	svc := new(MockSharedInvoiceUseCase)
	r := setupTestRouter(NewSharedInvoiceHandler(svc))
	id := uuid.New()
	v1 := uuid.New()

	svc.On("Update", mock.Anything, id, mock.MatchedBy(func(p finance.SharedInvoicePatch) bool {
		ids, ok := p.VehicleIDs.Get()
		return ok && len(ids) == 1 && ids[0] == v1 && p.TouchesAllocation() && !p.Description.IsSet()
	})).Return(&financeapp.SharedInvoiceResponse{ID: id}, nil)

	w := doJSON(t, r, http.MethodPatch, "/api/v1/shared-invoices/"+id.String(), map[string]any{
		"vehicle_ids": []string{v1.String()},
	})

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestContainerInvoiceHandler_Create(t *testing.T) {
	svc := new(MockContainerInvoiceUseCase)
	r := setupTestRouter(NewContainerInvoiceHandler(svc))
	customerID := uuid.New()
	sharedID := uuid.New()
	v1 := uuid.New()

	svc.On("Create", mock.Anything, financeapp.CreateContainerInvoiceRequest{
		CustomerID:      customerID,
		SharedInvoiceID: sharedID,
		VehicleIDs:      []uuid.UUID{v1},
	}).Return(&financeapp.ContainerInvoiceResponse{
		InvoiceNumber: "CONTAINER-INV-2026-001",
		Total:         decimal.NewFromInt(100000),
	}, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/container-invoices", map[string]any{
		"customer_id":       customerID.String(),
		"shared_invoice_id": sharedID.String(),
		"vehicle_ids":       []string{v1.String()},
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got financeapp.ContainerInvoiceResponse
	dataOf(t, w, &got)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(100000)))
	svc.AssertExpectations(t)
}

func TestContainerInvoiceHandler_Create_WrongSharedInvoiceType(t *testing.T) {
	svc := new(MockContainerInvoiceUseCase)
	r := setupTestRouter(NewContainerInvoiceHandler(svc))
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, finance.ErrInvalidSharedInvoiceType)

	w := doJSON(t, r, http.MethodPost, "/api/v1/container-invoices", map[string]any{
		"customer_id":       uuid.NewString(),
		"shared_invoice_id": uuid.NewString(),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, finance.CodeInvalidSharedInvoiceType, decodeError(t, w).Code)
}
