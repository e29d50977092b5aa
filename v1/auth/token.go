package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload. The subject is the normalized email.
type Claims struct {
	Email       string             `json:"email"`
	AccountType models.AccountType `json:"account_type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. Empty secrets are rejected.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token for the member
func (t *TokenIssuer) Issue(member *models.Member) (*models.TokenResponse, error) {
	issuedAt := t.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(t.ttl)

	claims := Claims{
		Email:       member.Email,
		AccountType: member.AccountType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member.Email,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   models.TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

// Verify parses and validates a token. Every failure is reported as models.ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (*models.AuthenticatedMember, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, models.ErrInvalidToken
	}

	email := claims.Email
	if email == "" {
		email = claims.Subject
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email claim is missing", models.ErrInvalidToken)
	}

	return &models.AuthenticatedMember{
		Email:       email,
		AccountType: claims.AccountType,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
