package audit

import "context"

// Auditor is the primary interface for audit logging operations.
//
// Implementations should handle:
// - Asynchronous logging (fire-and-forget)
// - Graceful degradation when audit service is unavailable
// - Thread-safe operations
type Auditor interface {
	// LogEvent logs an audit event asynchronously.
	// If the audit service is disabled or unavailable, this method should
	// return immediately without error.
	LogEvent(ctx context.Context, event *AuditLogRequest)

	// IsEnabled returns whether audit logging is currently enabled.
	// Callers can use it to skip building events that will be dropped.
	IsEnabled() bool
}
