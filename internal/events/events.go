package events

import (
	"time"

	"github.com/google/uuid"
)

// FetchTimeout is the default timeout for batch fetching from consumers.
const FetchTimeout = 2 * time.Second

// StreamEvents holds all devpad audit/analytics events.
const StreamEvents = "DEVPAD_EVENTS"

// Subject constants.
const (
	SubjectAuditEvent = "devpad.events.audit"
)

// Audit event types emitted by the platform.
const (
	EventQuotaDenied      = "quota_denied"
	EventProviderError    = "provider_error"
	EventPersistenceError = "persistence_error"
	EventFileSaved        = "file_saved"
	EventFileDeleted      = "file_deleted"
)

// AuditEvent is published for the compliance/audit trail. A durable consumer
// persists these off the request path.
type AuditEvent struct {
	UserID       uuid.UUID `json:"user_id"`
	EventType    string    `json:"event_type"`
	Severity     string    `json:"severity"` // info, warn, error
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"`
	Timestamp    time.Time `json:"timestamp"`
}
