package utils

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
)

// AuthContextKey is the key used to store authentication context in request context
type AuthContextKey string

const AuthContextKeyMember AuthContextKey = "authenticated_member"

// ExtractBearerToken extracts the Bearer token from the Authorization header
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("authorization header must start with 'Bearer '")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("bearer token is empty")
	}

	return token, nil
}

// GetAuthenticatedMember retrieves the authenticated member from request context
func GetAuthenticatedMember(ctx context.Context) (*models.AuthenticatedMember, error) {
	member, ok := ctx.Value(AuthContextKeyMember).(*models.AuthenticatedMember)
	if !ok || member == nil {
		return nil, fmt.Errorf("no authenticated member found in context")
	}
	return member, nil
}

// SetAuthenticatedMember sets the authenticated member in request context
func SetAuthenticatedMember(ctx context.Context, member *models.AuthenticatedMember) context.Context {
	return context.WithValue(ctx, AuthContextKeyMember, member)
}
