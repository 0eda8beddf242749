package domain

import "errors"

// Error kinds. Handlers switch on these with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access to resource denied")
	ErrUnauthenticated    = errors.New("invalid api credentials")
	ErrIDGeneration       = errors.New("failed to generate unique id")
	ErrStorageUnavailable = errors.New("database is unavailable")
	ErrBrokerUnavailable  = errors.New("message broker is unavailable")
)

// Stable error codes returned to API callers.
const (
	CodeBadRequest     = "BAD_REQUEST_ERROR"
	CodeInvalidVPA     = "INVALID_VPA"
	CodeInvalidCard    = "INVALID_CARD"
	CodeExpiredCard    = "EXPIRED_CARD"
	CodeOrderPaid      = "ORDER_ALREADY_PAID"
	CodeNotFound       = "NOT_FOUND_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
	CodePaymentFailed  = "PAYMENT_FAILED"
)

// Error carries a caller-facing code and description on top of one of the
// error kinds above.
type Error struct {
	Kind        error
	Code        string
	Description string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Description
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Validation(code, description string) error {
	return &Error{Kind: ErrValidation, Code: code, Description: description}
}

func NotFound(description string) error {
	return &Error{Kind: ErrNotFound, Code: CodeNotFound, Description: description}
}

func Forbidden(description string) error {
	return &Error{Kind: ErrForbidden, Code: CodeUnauthorized, Description: description}
}

func Unauthenticated(description string) error {
	return &Error{Kind: ErrUnauthenticated, Code: CodeAuthentication, Description: description}
}
