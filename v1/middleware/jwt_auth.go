package middleware

import (
	"log/slog"
	"net/http"

	sharedutils "github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/utils"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/auth"
	authutils "github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/utils"
)

const unauthorizedMessage = "invalid or missing access token"

// JWTAuth returns a middleware that requires a valid access token issued by issuer.
// Every rejection answers 401 with the same body.
func JWTAuth(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := authutils.ExtractBearerToken(r)
			if err != nil {
				slog.Warn("Failed to extract bearer token", "error", err, "path", r.URL.Path, "method", r.Method)
				sharedutils.RespondWithError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			member, err := issuer.Verify(tokenString)
			if err != nil {
				slog.Warn("Token validation failed", "error", err, "path", r.URL.Path, "method", r.Method)
				sharedutils.RespondWithError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			ctx := authutils.SetAuthenticatedMember(r.Context(), member)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
