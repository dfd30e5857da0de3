package middleware

import (
	"context"
	"net/http"

	authcore "github.com/oleanderhq/authcore"
	"github.com/oleanderhq/authcore/token"
)

type payloadContextKey struct{}

// PayloadFromContext returns the authenticated payload stored by
// [Authorizer], when the matched rule required authentication.
func PayloadFromContext(ctx context.Context) (token.Payload, bool) {
	p, ok := ctx.Value(payloadContextKey{}).(token.Payload)
	return p, ok
}

// Authorizer returns the request-authorization middleware. Every failure
// maps to exactly two client-visible states: 401 unauthenticated or 403
// forbidden. Raw internal errors never reach the client.
func Authorizer(engine *authcore.Engine, table *Table) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require := table.Match(r.URL.Path)
			if require.IsOpen() {
				next.ServeHTTP(w, r)
				return
			}

			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			outcome := engine.Authenticate(r.Context(),
				AccessTokenFromRequest(r),
				RefreshTokenFromRequest(r),
			)
			if !outcome.Authenticated {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// The renewal already rotated the stored refresh token, so the
			// fresh pair must reach the client even when the request is
			// about to be refused for a missing role.
			if outcome.Renewed {
				WriteTokenPair(w, outcome.AccessToken, outcome.RefreshToken, engine.Config().RefreshTTL)
			}

			if role := require.RoleName(); role != "" && !outcome.Payload.HasRole(role) {
				engine.Metrics().Inc(authcore.MetricAuthForbidden)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), payloadContextKey{}, outcome.Payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
