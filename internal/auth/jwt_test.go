package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kittycore/pkg/domain"
)

func fixedNow(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestIssueAuthenticateRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	j, err := NewJWT([]byte("secret"), WithNow(fixedNow(now)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tok, err := j.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	origin, err := j.Authenticate(context.Background(), tok)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if origin.Caller != "alice" {
		t.Fatalf("unexpected origin %+v", origin)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	j, _ := NewJWT([]byte("secret"), WithNow(fixedNow(now)), WithTTL(time.Hour))
	other, _ := NewJWT([]byte("other"), WithNow(fixedNow(now)))
	foreign, _ := NewJWT([]byte("secret"), WithNow(fixedNow(now)), WithIssuer("someone-else"))

	valid, _ := j.Issue("alice")
	wrongKey, _ := other.Issue("alice")
	wrongIssuer, _ := foreign.Issue("alice")
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    DefaultIssuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  DefaultIssuer,
		Subject: "alice",
	}).SignedString([]byte("secret"))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Issuer:    DefaultIssuer,
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("secret"))

	later, _ := NewJWT([]byte("secret"), WithNow(fixedNow(now.Add(2*time.Hour))))

	cases := []struct {
		name  string
		auth  *JWT
		token string
	}{
		{"empty", j, "  "},
		{"garbage", j, "not-a-token"},
		{"wrong key", j, wrongKey},
		{"wrong issuer", j, wrongIssuer},
		{"no subject", j, noSubject},
		{"no expiry", j, noExpiry},
		{"wrong alg", j, hs512},
		{"expired", later, valid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.auth.Authenticate(context.Background(), tc.token)
			if !errors.Is(err, domain.ErrBadOrigin) {
				t.Fatalf("expected ErrBadOrigin, got %v", err)
			}
		})
	}
}

func TestNewAndIssueValidation(t *testing.T) {
	if _, err := NewJWT(nil); err == nil {
		t.Fatalf("expected secret error")
	}
	j, _ := NewJWT([]byte("k"))
	if _, err := j.Issue(" "); err == nil {
		t.Fatalf("expected account error")
	}
}
