package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring and forensics:
	// client authentication failures, replayed codes, cross-client token use.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine issuance. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is emitted from grant logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string        `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	UserID    string        `json:"user_id,omitempty"`
	ClientID  string        `json:"client_id,omitempty"`
	// Subject is the artifact the event is about (auth code ID, token ID).
	Subject   string   `json:"subject,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
	ClientIP  string   `json:"client_ip,omitempty"`
	UserAgent string   `json:"user_agent,omitempty"`
	Severity  Severity `json:"severity,omitempty"`
}

type AuditEvent string

const (
	EventAuthCodeIssued             AuditEvent = "auth_code_issued"
	EventAuthCodeReplayed           AuditEvent = "auth_code_replayed"
	EventTokenIssued                AuditEvent = "token_issued"
	EventTokenRefreshed             AuditEvent = "token_refreshed"
	EventRefreshTokenClientMismatch AuditEvent = "refresh_token_client_mismatch"
	EventClientAuthFailed           AuditEvent = "client_auth_failed"
	EventAuthorizationDenied        AuditEvent = "authorization_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAuthCodeReplayed:           CategorySecurity,
	EventRefreshTokenClientMismatch: CategorySecurity,
	EventClientAuthFailed:           CategorySecurity,

	EventAuthCodeIssued:      CategoryOperations,
	EventTokenIssued:         CategoryOperations,
	EventTokenRefreshed:      CategoryOperations,
	EventAuthorizationDenied: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
