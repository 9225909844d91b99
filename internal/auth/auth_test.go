package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

func TestVerifier(t *testing.T) {
	v := NewVerifier(config.Auth{Enabled: true, JWTSecret: "secret", JWTIssuer: "catalog"})

	t.Run("Should round trip a principal", func(t *testing.T) {
		want := Principal{Subject: "alice", IsAdmin: true, IsActive: true}
		token, err := v.Issue(want, "catalog", time.Minute)
		require.NoError(t, err)

		got, err := v.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Should reject an expired token", func(t *testing.T) {
		token, err := v.Issue(Principal{Subject: "alice"}, "catalog", -time.Minute)
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, apperr.UnauthorizedErr)
	})

	t.Run("Should reject a foreign signature", func(t *testing.T) {
		other := NewVerifier(config.Auth{JWTSecret: "other"})
		token, err := other.Issue(Principal{Subject: "mallory"}, "catalog", time.Minute)
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, apperr.UnauthorizedErr)
	})

	t.Run("Should reject the wrong issuer", func(t *testing.T) {
		token, err := v.Issue(Principal{Subject: "alice"}, "elsewhere", time.Minute)
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, apperr.UnauthorizedErr)
	})

	t.Run("Should reject garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		require.ErrorIs(t, err, apperr.UnauthorizedErr)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run("Should parse "+tt.header, func(t *testing.T) {
			token, ok := BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestRequire(t *testing.T) {
	ctx := context.Background()

	t.Run("Should be unauthorized without a principal", func(t *testing.T) {
		_, err := RequireActive(ctx)
		require.ErrorIs(t, err, apperr.UnauthorizedErr)
	})

	t.Run("Should forbid inactive principals", func(t *testing.T) {
		_, err := RequireActive(NewContext(ctx, Principal{Subject: "bob"}))
		require.ErrorIs(t, err, apperr.ForbiddenErr)
	})

	t.Run("Should forbid non admins", func(t *testing.T) {
		_, err := RequireAdmin(NewContext(ctx, Principal{Subject: "bob", IsActive: true}))
		require.ErrorIs(t, err, apperr.ForbiddenErr)
	})

	t.Run("Should accept active admins", func(t *testing.T) {
		p, err := RequireAdmin(NewContext(ctx, Principal{Subject: "root", IsActive: true, IsAdmin: true}))
		require.NoError(t, err)
		assert.Equal(t, "root", p.Subject)
	})
}
