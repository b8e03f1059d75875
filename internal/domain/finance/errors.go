package finance

import "github.com/autoexport/backend/internal/domain/shared"

// Finance domain error codes
const (
	CodeValidation                = "VALIDATION_ERROR"
	CodeMissingVendor             = "MISSING_VENDOR"
	CodeInvalidVendor             = "INVALID_VENDOR"
	CodeEmptyVehicleList          = "EMPTY_VEHICLE_LIST"
	CodeInvalidAmount             = "INVALID_AMOUNT"
	CodeInvalidSharedInvoiceType  = "INVALID_SHARED_INVOICE_TYPE"
	CodeVehicleNotInSharedInvoice = "VEHICLE_NOT_IN_SHARED_INVOICE"
	CodeInvalidAllocationStrategy = "INVALID_ALLOCATION_STRATEGY"
	CodeAllocationMismatch        = "ALLOCATION_MISMATCH"
	CodeInvalidState              = "INVALID_STATE"
)

var (
	ErrMissingVendor             = shared.NewDomainError(CodeMissingVendor, "vendorId is required in shared invoice metadata")
	ErrMalformedVendor           = shared.NewDomainError(CodeInvalidVendor, "vendorId in shared invoice metadata is not a valid identifier")
	ErrEmptyVehicleList          = shared.NewDomainError(CodeEmptyVehicleList, "at least one vehicle is required")
	ErrNonPositiveTotal          = shared.NewDomainError(CodeInvalidAmount, "totalAmount must be greater than zero")
	ErrNegativeAmount            = shared.NewDomainError(CodeInvalidAmount, "amount cannot be negative")
	ErrInvalidSharedInvoiceType  = shared.NewDomainError(CodeInvalidSharedInvoiceType, "container invoices must reference a CONTAINER shared invoice")
	ErrVehicleNotInSharedInvoice = shared.NewDomainError(CodeVehicleNotInSharedInvoice, "vehicle is not allocated on the referenced shared invoice")
	ErrDuplicateVehicle          = shared.NewDomainError(CodeValidation, "vehicle listed more than once")
	ErrAllocationMismatch        = shared.NewDomainError(CodeAllocationMismatch, "allocated amounts do not add up to totalAmount")
)

func validationError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, message)
}

func invalidState(message string) *shared.DomainError {
	return shared.NewDomainError(CodeInvalidState, message)
}
