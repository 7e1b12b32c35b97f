// Package errors provides custom error types for the HomeBudget API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
)

// Category errors.
var (
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse       = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing budget items or transactions", StatusCode: http.StatusConflict}
	ErrCategoryHasChildren = &AppError{Code: "CATEGORY_HAS_CHILDREN", Message: "Category has child categories", StatusCode: http.StatusConflict}
	ErrCategoryCycle       = &AppError{Code: "CATEGORY_CYCLE", Message: "Category parent chain would form a cycle", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrPeriodNotFound      = &AppError{Code: "PERIOD_NOT_FOUND", Message: "Budget period not found", StatusCode: http.StatusNotFound}
	ErrPeriodExists        = &AppError{Code: "PERIOD_EXISTS", Message: "A budget period covering those dates already exists", StatusCode: http.StatusConflict}
	ErrInvalidDateRange    = &AppError{Code: "INVALID_DATE_RANGE", Message: "end_date must be after start_date", StatusCode: http.StatusBadRequest}
	ErrBudgetItemNotFound  = &AppError{Code: "BUDGET_ITEM_NOT_FOUND", Message: "Budget item not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBudgetItem = &AppError{Code: "DUPLICATE_BUDGET_ITEM", Message: "A budget item for this category already exists in the period", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrSplitAmountMismatch = &AppError{Code: "SPLIT_AMOUNT_MISMATCH", Message: "Split amounts must sum to the parent transaction amount", StatusCode: http.StatusBadRequest}
	ErrAlreadySplit        = &AppError{Code: "ALREADY_SPLIT", Message: "Transaction is already split", StatusCode: http.StatusConflict}
	ErrNotSplit            = &AppError{Code: "NOT_SPLIT", Message: "Transaction is not split", StatusCode: http.StatusBadRequest}
	ErrSplitChild          = &AppError{Code: "SPLIT_CHILD", Message: "Operation not allowed on a split child transaction", StatusCode: http.StatusBadRequest}
)

// SimpleFIN errors.
var (
	ErrSimpleFINNotConfigured = &AppError{Code: "SIMPLEFIN_NOT_CONFIGURED", Message: "SimpleFIN is not configured for this user", StatusCode: http.StatusBadRequest}
	ErrSimpleFINSetup         = &AppError{Code: "SIMPLEFIN_SETUP_FAILED", Message: "Failed to exchange SimpleFIN setup token", StatusCode: http.StatusBadRequest}
	ErrSimpleFINUnavailable   = &AppError{Code: "SIMPLEFIN_UNAVAILABLE", Message: "SimpleFIN bridge request failed, try again later", StatusCode: http.StatusBadGateway}
)
