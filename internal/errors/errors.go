// Package errors provides custom error types for the FundFlow API.
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

// Trade ledger errors. Validation failures are rejected before any state is touched.
var (
	ErrValidation    = &AppError{Code: "VALIDATION_ERROR", Message: "Trade failed validation", StatusCode: http.StatusBadRequest}
	ErrTradeNotFound = &AppError{Code: "TRADE_NOT_FOUND", Message: "Trade not found", StatusCode: http.StatusNotFound}
)

// Position reconciliation errors. These indicate malformed input or a
// sequencing bug in the caller (a close submitted before its open); they are
// never retryable and must surface to the operator.
var (
	ErrNoOpenPosition       = &AppError{Code: "NO_OPEN_POSITION", Message: "No open position to close", StatusCode: http.StatusConflict}
	ErrInsufficientPosition = &AppError{Code: "INSUFFICIENT_POSITION", Message: "Not enough open quantity to close", StatusCode: http.StatusConflict}
	ErrPositionNotFound     = &AppError{Code: "POSITION_NOT_FOUND", Message: "Position not found", StatusCode: http.StatusNotFound}
	ErrPositionClosed       = &AppError{Code: "POSITION_CLOSED", Message: "Position is already closed", StatusCode: http.StatusConflict}
)

// Ticker parsing errors.
var (
	ErrTickerFormat = &AppError{Code: "FORMAT_ERROR", Message: "Malformed option symbol", StatusCode: http.StatusBadRequest}
)

// Fund / company / broker / option errors.
var (
	ErrFundNotFound      = &AppError{Code: "FUND_NOT_FOUND", Message: "Fund not found", StatusCode: http.StatusNotFound}
	ErrDuplicateFundName = &AppError{Code: "DUPLICATE_FUND_NAME", Message: "A fund with this name already exists", StatusCode: http.StatusConflict}
	ErrCompanyNotFound   = &AppError{Code: "COMPANY_NOT_FOUND", Message: "Company not found", StatusCode: http.StatusNotFound}
	ErrBrokerNotFound    = &AppError{Code: "BROKER_NOT_FOUND", Message: "Broker account not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBroker   = &AppError{Code: "DUPLICATE_BROKER", Message: "A broker account of this type already exists", StatusCode: http.StatusConflict}
	ErrOptionNotFound    = &AppError{Code: "OPTION_NOT_FOUND", Message: "Option not found", StatusCode: http.StatusNotFound}
)

// Holding errors.
var (
	ErrHoldingNotFound    = &AppError{Code: "HOLDING_NOT_FOUND", Message: "Holding not found", StatusCode: http.StatusNotFound}
	ErrInsufficientShares = &AppError{Code: "INSUFFICIENT_SHARES", Message: "Cannot sell more than the held quantity", StatusCode: http.StatusBadRequest}
)

// Import errors.
var (
	ErrUnknownBroker = &AppError{Code: "UNKNOWN_BROKER", Message: "No statement parser registered for this broker", StatusCode: http.StatusBadRequest}
	ErrStatement     = &AppError{Code: "STATEMENT_ERROR", Message: "Could not read broker statement", StatusCode: http.StatusBadRequest}
)

// Market data errors.
var (
	ErrQuoteUnavailable = &AppError{Code: "QUOTE_UNAVAILABLE", Message: "No quote available for symbol", StatusCode: http.StatusBadGateway}
)
