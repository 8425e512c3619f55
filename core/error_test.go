package core

import (
	"errors"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUpstreamError, "upstream failed").
		WithCause(root).
		WithRetryable(true).
		WithProvider("openai")

	if GetErrorCode(err) != ErrUpstreamError {
		t.Fatalf("expected code %s, got %s", ErrUpstreamError, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
	if err.HTTPStatus != 502 {
		t.Fatalf("expected default HTTP status 502, got %d", err.HTTPStatus)
	}
}

func TestStatusForCode_KnownAndUnknown(t *testing.T) {
	t.Parallel()

	if got := StatusForCode(ErrNoAvailableModels); got != 503 {
		t.Fatalf("expected 503, got %d", got)
	}
	if got := StatusForCode(ErrorCode("NOT_REGISTERED")); got != 500 {
		t.Fatalf("expected fallback 500, got %d", got)
	}
}
