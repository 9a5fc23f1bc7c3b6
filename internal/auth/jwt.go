// Package auth turns bearer credentials into verified registry origins.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kittycore/pkg/domain"
)

// DefaultIssuer is stamped into issued tokens and required on parse.
const DefaultIssuer = "kittycore"

// DefaultTTL bounds the lifetime of issued tokens.
const DefaultTTL = 24 * time.Hour

var _ domain.Authenticator = (*JWT)(nil)

// JWT issues and verifies HS256 tokens whose subject is the account id.
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a JWT authenticator.
type Option func(*JWT)

// WithIssuer overrides DefaultIssuer.
func WithIssuer(issuer string) Option {
	return func(j *JWT) {
		if issuer != "" {
			j.issuer = issuer
		}
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(j *JWT) {
		if ttl > 0 {
			j.ttl = ttl
		}
	}
}

// WithNow sets the time source used for issuing and validation.
func WithNow(now func() time.Time) Option {
	return func(j *JWT) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJWT returns an authenticator keyed by secret.
func NewJWT(secret []byte, opts ...Option) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	j := &JWT{secret: append([]byte(nil), secret...), issuer: DefaultIssuer, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Issue signs a token for who.
func (j *JWT) Issue(who domain.AccountID) (string, error) {
	if strings.TrimSpace(string(who)) == "" {
		return "", errors.New("account id is required")
	}
	now := j.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   string(who),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies credential and returns the signed origin. Any
// failure is reported as domain.ErrBadOrigin with the parse error as cause.
func (j *JWT) Authenticate(_ context.Context, credential string) (domain.Origin, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Origin{}, domain.NewError(domain.CodeBadOrigin, "missing credential")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return domain.Origin{}, domain.WrapError(domain.CodeBadOrigin, "invalid credential", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Origin{}, domain.NewError(domain.CodeBadOrigin, "credential has no subject")
	}
	return domain.Signed(domain.AccountID(claims.Subject)), nil
}
