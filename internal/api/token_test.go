package api

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, sub int, exp time.Time) string {
	t.Helper()
	tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return signed
}

func TestTokenClaims_DecodesSubjectAndExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	claims, err := TokenClaims("Bearer " + signToken(t, 42, exp))
	if err != nil {
		t.Fatalf("TokenClaims returned error: %v", err)
	}
	if claims.Subject != "42" {
		t.Fatalf("Subject = %q, want 42", claims.Subject)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("ExpiresAt = %v, want %v", claims.ExpiresAt, exp)
	}
	if claims.Expired(time.Now()) {
		t.Fatalf("Expired = true for a token valid another 30 minutes")
	}
	if !claims.Expired(exp.Add(time.Second)) {
		t.Fatalf("Expired = false after exp")
	}
}

func TestTokenClaims_RejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "   ", "not.a.jwt"} {
		if _, err := TokenClaims(tok); err == nil {
			t.Fatalf("TokenClaims(%q) returned nil error", tok)
		}
	}
}

func TestClaims_NoExpiryNeverExpires(t *testing.T) {
	if (Claims{}).Expired(time.Now()) {
		t.Fatalf("zero Claims reported expired")
	}
}
