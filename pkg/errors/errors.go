package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error identifier. Clients branch on
// codes, never on message text.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"

	// Lending-domain codes.
	CodeInvalidStatusTransition  Code = "INVALID_STATUS_TRANSITION"
	CodeInsufficientAvailability Code = "INSUFFICIENT_AVAILABILITY"
	CodeInventoryBoundsViolation Code = "INVENTORY_BOUNDS_VIOLATION"
	CodeBelowReservedQuantity    Code = "BELOW_RESERVED_QUANTITY"
	CodeQuantityExceedsCapacity  Code = "QUANTITY_EXCEEDS_CAPACITY"
	CodeDuplicatePendingRequest  Code = "DUPLICATE_PENDING_REQUEST"
	CodeDuplicateActiveRequest   Code = "DUPLICATE_ACTIVE_REQUEST"
	CodeHasActiveReservations    Code = "HAS_ACTIVE_RESERVATIONS"
	CodeDuplicateName            Code = "DUPLICATE_NAME"
	CodeConcurrentModification   Code = "CONCURRENT_MODIFICATION"
)

// Metadata drives how a code renders over HTTP. DetailsAllowed gates
// whether structured details reach the client; internal causes never do.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var codeMeta = map[Code]Metadata{
	CodeValidation:   {http.StatusBadRequest, false, "validation failed", true},
	CodeUnauthorized: {http.StatusUnauthorized, false, "authentication required", false},
	CodeForbidden:    {http.StatusForbidden, false, "access denied", false},
	CodeNotFound:     {http.StatusNotFound, false, "resource not found", false},
	CodeConflict:     {http.StatusConflict, false, "conflict detected", false},
	CodeRateLimit:    {http.StatusTooManyRequests, false, "rate limit exceeded", false},
	CodeInternal:     {http.StatusInternalServerError, true, "internal server error", false},
	CodeDependency:   {http.StatusServiceUnavailable, true, "dependency unavailable", true},

	CodeInvalidStatusTransition:  {http.StatusUnprocessableEntity, false, "status transition disallowed", true},
	CodeInsufficientAvailability: {http.StatusConflict, false, "insufficient availability", true},
	CodeInventoryBoundsViolation: {http.StatusConflict, false, "inventory counters out of bounds", true},
	CodeBelowReservedQuantity:    {http.StatusConflict, false, "total quantity below reserved units", true},
	CodeQuantityExceedsCapacity:  {http.StatusUnprocessableEntity, false, "requested quantity exceeds total stock", true},
	CodeDuplicatePendingRequest:  {http.StatusConflict, false, "a pending request for this equipment already exists", true},
	CodeDuplicateActiveRequest:   {http.StatusConflict, false, "an active request for this equipment already exists", true},
	CodeHasActiveReservations:    {http.StatusConflict, false, "equipment has active reservations", true},
	CodeDuplicateName:            {http.StatusConflict, false, "name already in use", true},
	CodeConcurrentModification:   {http.StatusConflict, true, "record was modified concurrently, retry", false},
}

// MetadataFor returns the rendering rules for a code, defaulting to the
// internal-error rules for anything unregistered.
func MetadataFor(code Code) Metadata {
	if meta, ok := codeMeta[code]; ok {
		return meta
	}
	return codeMeta[CodeInternal]
}

// Error is the typed error carried across service boundaries. The message
// is for logs; the public message comes from the code's metadata.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// degrades to New.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches structured context, surfaced to clients only when
// the code's metadata allows it.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the typed error from anywhere in a wrap chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
