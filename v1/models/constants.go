package models

import "time"

// SubscriptionStatus values written by this service. Providers may report others, which are stored verbatim.
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusInactive  = "inactive"
)

// AccountType is the coarse entitlement tier
type AccountType string

const (
	AccountTypeFree AccountType = "free"
	AccountTypePaid AccountType = "paid"
)

// AuthProvider records how a member record was first created
type AuthProvider string

const (
	AuthProviderEmail   AuthProvider = "email"
	AuthProviderGumroad AuthProvider = "gumroad"
)

// Entitlement reasons returned by validate-user
const (
	ReasonActive              = "active"
	ReasonCancelled           = "cancelled"
	ReasonSubscriptionExpired = "subscription_expired"
	ReasonInactive            = "inactive"
	ReasonUserNotFound        = "user_not_found"
	ReasonEmailRequired       = "email_required"
)

// Subscription event labels
const (
	EventLabelGumroadWebhook = "gumroad_webhook"
	ProviderGumroad          = "gumroad"
)

// RenewalPeriod is the paid window granted by each provider event
const RenewalPeriod = 30 * 24 * time.Hour

// TokenTypeBearer is the token_type returned with access tokens
const TokenTypeBearer = "bearer"

// Audit resource and status names
const (
	ResourceTypeMembers = "MEMBERS"

	AuditStatusSuccess = "SUCCESS"
	AuditStatusFailure = "FAILURE"
)

// Field length constraints
const (
	MaxNameLength     = 255
	MaxEmailLength    = 320 // RFC 3696
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)
