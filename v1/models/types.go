package models

import "time"

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MeResponse is returned by GET /me
type MeResponse struct {
	Email       string      `json:"email"`
	AccountType AccountType `json:"account_type"`
}

// EntitlementResponse is returned by GET /validate-user
type EntitlementResponse struct {
	Active          bool        `json:"active"`
	Reason          string      `json:"reason"`
	AccountType     AccountType `json:"account_type,omitempty"`
	SubscriptionEnd *time.Time  `json:"subscription_end,omitempty"`
}

// WebhookResponse is returned by POST /webhook/gumroad on success
type WebhookResponse struct {
	Status string `json:"status"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Database string `json:"database"`
	Details  string `json:"details,omitempty"`
}

// AuthenticatedMember is the identity carried by a verified access token
type AuthenticatedMember struct {
	Email       string
	AccountType AccountType
	ExpiresAt   time.Time
}
