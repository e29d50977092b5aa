package audit

import (
	"encoding/json"
	"log/slog"
	"time"
)

// MarshalMetadata safely marshals metadata to json.RawMessage.
// Returns empty JSON object "{}" on error to ensure valid JSON.
// Returns nil if metadata is nil.
func MarshalMetadata(metadata map[string]interface{}) json.RawMessage {
	if metadata == nil {
		return nil
	}
	bytes, err := json.Marshal(metadata)
	if err != nil {
		slog.Error("Failed to marshal metadata for audit", "error", err)
		return json.RawMessage("{}")
	}
	return json.RawMessage(bytes)
}

// CurrentTimestamp returns current UTC time in RFC3339 format.
func CurrentTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// NewEvent builds an event against a resource with the current timestamp
func NewEvent(eventType, action, actorType, actorID, targetID, status string) *AuditLogRequest {
	event := &AuditLogRequest{
		Timestamp:   CurrentTimestamp(),
		EventType:   &eventType,
		EventAction: &action,
		Status:      status,
		ActorType:   actorType,
		ActorID:     actorID,
		TargetType:  TargetTypeResource,
	}
	if targetID != "" {
		event.TargetID = &targetID
	}
	return event
}

// WithTraceID attaches a trace id when one is known
func (r *AuditLogRequest) WithTraceID(traceID string) *AuditLogRequest {
	if traceID != "" {
		r.TraceID = &traceID
	}
	return r
}

// WithMetadata sets the additional metadata
func (r *AuditLogRequest) WithMetadata(metadata map[string]interface{}) *AuditLogRequest {
	r.AdditionalMetadata = MarshalMetadata(metadata)
	return r
}
