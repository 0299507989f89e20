package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := map[Code]Metadata{
		CodeValidation:   {http.StatusBadRequest, false, "validation failed", true},
		CodeUnauthorized: {http.StatusUnauthorized, false, "authentication required", false},
		CodeForbidden:    {http.StatusForbidden, false, "access denied", false},
		CodeNotFound:     {http.StatusNotFound, false, "resource not found", false},
		CodeConflict:     {http.StatusConflict, false, "conflict detected", false},
		CodeInternal:     {http.StatusInternalServerError, true, "internal server error", false},
		CodeDependency:   {http.StatusServiceUnavailable, true, "dependency unavailable", true},

		CodeInvalidStatusTransition:  {http.StatusUnprocessableEntity, false, "status transition disallowed", true},
		CodeInsufficientAvailability: {http.StatusConflict, false, "insufficient availability", true},
		CodeBelowReservedQuantity:    {http.StatusConflict, false, "total quantity below reserved units", true},
		CodeDuplicatePendingRequest:  {http.StatusConflict, false, "a pending request for this equipment already exists", true},
		CodeDuplicateActiveRequest:   {http.StatusConflict, false, "an active request for this equipment already exists", true},
		CodeConcurrentModification:   {http.StatusConflict, true, "record was modified concurrently, retry", false},
	}

	for code, want := range cases {
		if got := MetadataFor(code); got != want {
			t.Fatalf("%s: metadata = %+v, want %+v", code, got, want)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	if got := MetadataFor("SOMETHING_UNKNOWN"); got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code mapped to status %d, want 500", got.HTTPStatus)
	}
}

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeValidation, "missing foo")

	if err.Code() != CodeValidation {
		t.Fatalf("code = %s, want %s", err.Code(), CodeValidation)
	}
	if err.Message() != "missing foo" {
		t.Fatalf("message = %q", err.Message())
	}
	if err.Details() != nil {
		t.Fatal("fresh error should carry no details")
	}

	err.WithDetails(map[string]any{"field": "foo"})
	if err.Details() == nil {
		t.Fatal("WithDetails did not stick")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "saving row")

	if !stdErrors.Is(wrapped, cause) {
		t.Fatal("cause lost in wrap chain")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("code = %s, want %s", wrapped.Code(), CodeConflict)
	}
	if Wrap(CodeConflict, nil, "no cause").Unwrap() != nil {
		t.Fatal("wrapping nil should not invent a cause")
	}
}

func TestAsExtractsTypedError(t *testing.T) {
	typed := New(CodeForbidden, "no entry")
	if got := As(typed); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As(typed) = %v", got)
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("As should reject untyped errors")
	}
	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}
}
