package api

import (
	"testing"
	"time"
)

func TestIssueTokenRoundTrip(t *testing.T) {
	t.Parallel()

	auth, err := NewAuth("signing-secret", []string{"key-one", " key-two "})
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	token, ttl, err := auth.IssueToken("key-one")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if ttl != defaultTokenTTL {
		t.Fatalf("ttl = %v, want %v", ttl, defaultTokenTTL)
	}
	if err := auth.ValidateToken(token); err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if !auth.ValidAPIKey("key-two") {
		t.Fatal("trimmed api key should validate")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	t.Parallel()

	auth, err := NewAuth("signing-secret", []string{"key"})
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	issued := time.Now().Add(-2 * defaultTokenTTL)
	auth.now = func() time.Time { return issued }
	token, _, err := auth.IssueToken("key")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	auth.now = time.Now
	if err := auth.ValidateToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewAuth("secret-a", []string{"key"})
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}
	verifier, err := NewAuth("secret-b", []string{"key"})
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}

	token, _, err := issuer.IssueToken("key")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := verifier.ValidateToken(token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestNewAuthRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewAuth("  ", nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
