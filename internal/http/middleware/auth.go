package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/auth"
)

// ErrorWriter writes err as the response of r.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticate puts the principal of a valid bearer token into the request
// context. With required set, a request without a valid token is rejected
// with 401 and an inactive principal with 403. Otherwise a missing token
// passes through anonymously, but an invalid one is still rejected.
func Authenticate(v *auth.Verifier, required bool, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" && !required {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := auth.BearerToken(header)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeErr(w, r, apperr.UnauthorizedErr)
				return
			}

			p, err := v.Verify(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeErr(w, r, err)
				return
			}

			ctx := auth.NewContext(r.Context(), p)
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("enduser.id", p.Subject))
			if required {
				if _, err := auth.RequireActive(ctx); err != nil {
					writeErr(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
