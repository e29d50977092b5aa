package audit

import (
	"encoding/json"
)

// AuditLogRequest represents the request payload for creating an audit log
type AuditLogRequest struct {
	// Trace & Correlation
	TraceID *string `json:"traceId,omitempty"`

	// Temporal
	Timestamp string `json:"timestamp"` // ISO 8601 format, required

	// Event Classification
	EventType   *string `json:"eventType,omitempty"`
	EventAction *string `json:"eventAction,omitempty"` // CREATE, READ, UPDATE
	Status      string  `json:"status"`                // SUCCESS, FAILURE

	// Actor Information
	ActorType string `json:"actorType"` // MEMBER, SERVICE
	ActorID   string `json:"actorId"`   // email or service name

	// Target Information
	TargetType string  `json:"targetType"`
	TargetID   *string `json:"targetId,omitempty"`

	// Metadata (no credentials or other secrets)
	RequestMetadata    json.RawMessage `json:"requestMetadata,omitempty"`
	ResponseMetadata   json.RawMessage `json:"responseMetadata,omitempty"`
	AdditionalMetadata json.RawMessage `json:"additionalMetadata,omitempty"`
}

// Audit log status constants
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// Actor and target types
const (
	ActorTypeMember  = "MEMBER"
	ActorTypeService = "SERVICE"

	TargetTypeResource = "RESOURCE"
)

// Event actions
const (
	ActionCreate = "CREATE"
	ActionRead   = "READ"
	ActionUpdate = "UPDATE"
)

// Membership event types
const (
	EventTypeMemberRegistered    = "MEMBER_REGISTERED"
	EventTypeMemberLogin         = "MEMBER_LOGIN"
	EventTypeSubscriptionWebhook = "SUBSCRIPTION_WEBHOOK"
)
