package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := New(CodeNotFound, "video missing")
	if !stderrors.Is(err, New(CodeNotFound, "different message")) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeDuplicate, "video missing")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("socket closed")
	err := Wrap(CodeStorage, "insert video", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be traversable")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if CodeOf(wrapped) != CodeStorage {
		t.Fatalf("CodeOf = %v, want %v", CodeOf(wrapped), CodeStorage)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: New(CodeNotFound, "missing"), want: http.StatusNotFound},
		{name: "duplicate", err: New(CodeDuplicate, "exists"), want: http.StatusConflict},
		{name: "invalid signature", err: New(CodeWebhookInvalidSignature, "bad sig"), want: http.StatusForbidden},
		{name: "missing credentials", err: New(CodeAuthMissingCredentials, "no key"), want: http.StatusUnauthorized},
		{name: "invalid date", err: New(CodeVideoInvalidDate, "bad date"), want: http.StatusBadRequest},
		{name: "plain error", err: stderrors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus = %d, want %d", got, tc.want)
			}
		})
	}
}
