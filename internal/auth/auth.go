// Package auth verifies bearer tokens and carries the authenticated principal
// through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

// Principal is the authenticated caller.
type Principal struct {
	Subject  string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

// Claims are the token claims the catalog reads.
type Claims struct {
	IsAdmin  bool `json:"is_admin"`
	IsActive bool `json:"is_active"`
	jwt.RegisteredClaims
}

func (c Claims) principal() Principal {
	return Principal{Subject: c.Subject, IsAdmin: c.IsAdmin, IsActive: c.IsActive}
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(cfg config.Auth) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}

	return &Verifier{
		secret: []byte(cfg.JWTSecret),
		parser: jwt.NewParser(opts...),
	}
}

// Verify parses an HS256 token and returns its principal. Every failure is
// reported as apperr.UnauthorizedErr.
func (v *Verifier) Verify(token string) (Principal, error) {
	var claims Claims
	if _, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return Principal{}, apperr.UnauthorizedErr.WrapParent(err)
	}
	if claims.Subject == "" {
		return Principal{}, apperr.UnauthorizedErr.WrapParent(errors.New("token has no subject"))
	}

	return claims.principal(), nil
}

// Issue signs a token for p. The catalog never issues tokens to clients; this
// exists for tests and local tooling.
func (v *Verifier) Issue(p Principal, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		IsAdmin:  p.IsAdmin,
		IsActive: p.IsActive,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	s, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// BearerToken extracts the token of an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type principalKey struct{}

func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// RequireActive returns the principal of ctx when it is active.
func RequireActive(ctx context.Context) (Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return Principal{}, apperr.UnauthorizedErr
	}
	if !p.IsActive {
		return Principal{}, apperr.ForbiddenErr.WithMsg("inactive user")
	}
	return p, nil
}

// RequireAdmin returns the principal of ctx when it is an active admin.
func RequireAdmin(ctx context.Context) (Principal, error) {
	p, err := RequireActive(ctx)
	if err != nil {
		return Principal{}, err
	}
	if !p.IsAdmin {
		return Principal{}, apperr.ForbiddenErr
	}
	return p, nil
}
