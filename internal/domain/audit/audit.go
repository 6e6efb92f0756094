package audit

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event is the closed set of auditable workflow events.
type Event string

const (
	EventWorkflowCreated   Event = "WORKFLOW_CREATED"
	EventActionTaken       Event = "ACTION_TAKEN"
	EventDelegationCreated Event = "DELEGATION_CREATED"
	EventEscalated         Event = "ESCALATED"
	EventEmergencyBypass   Event = "EMERGENCY_BYPASS"
)

// Valid reports whether the event is a recognized kind.
func (e Event) Valid() bool {
	switch e {
	case EventWorkflowCreated, EventActionTaken, EventDelegationCreated, EventEscalated, EventEmergencyBypass:
		return true
	}
	return false
}

var (
	ErrInvalidEvent = errors.New("unrecognized audit event")
	ErrMissingActor = errors.New("audit entry requires an actor")
	ErrImmutable    = errors.New("audit history is immutable")
	ErrNotFound     = errors.New("audit entry not found")
)

// TransientError marks a storage failure worth retrying. Repositories wrap
// backend-unavailability errors with it so callers can distinguish transient
// faults from permanent ones.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient storage error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable storage failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Entry is a single tamper-evident audit record.
type Entry struct {
	ID            int64           `json:"id"`
	AuditID       uuid.UUID       `json:"auditId"`
	WorkflowID    *uuid.UUID      `json:"workflowId,omitempty"`
	Event         Event           `json:"event"`
	EntityType    string          `json:"entityType"`
	EntityID      string          `json:"entityId"`
	ActorID       string          `json:"actorId"`
	ActorRole     string          `json:"actorRole,omitempty"`
	OldValues     json.RawMessage `json:"oldValues,omitempty"`
	NewValues     json.RawMessage `json:"newValues,omitempty"`
	IPAddress     string          `json:"ipAddress,omitempty"`
	UserAgent     string          `json:"userAgent,omitempty"`
	SessionID     string          `json:"sessionId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	IntegrityHash []byte          `json:"integrityHash"`

	// Tampered is set on read when the stored hash no longer matches the
	// recomputed one. Never persisted.
	Tampered bool `json:"tampered,omitempty"`
}

// Data is the input for creating audit entries.
type Data struct {
	WorkflowID *uuid.UUID
	Event      Event
	EntityType string
	EntityID   string
	ActorID    string
	ActorRole  string
	OldValues  interface{}
	NewValues  interface{}
	IPAddress  string
	UserAgent  string
	SessionID  string
}

// NewEntry validates data and builds an Entry without its integrity hash.
func NewEntry(d Data) (*Entry, error) {
	if !d.Event.Valid() {
		return nil, ErrInvalidEvent
	}
	if d.ActorID == "" {
		return nil, ErrMissingActor
	}
	e := &Entry{
		AuditID:    uuid.New(),
		WorkflowID: d.WorkflowID,
		Event:      d.Event,
		EntityType: d.EntityType,
		EntityID:   d.EntityID,
		ActorID:    d.ActorID,
		ActorRole:  d.ActorRole,
		IPAddress:  d.IPAddress,
		UserAgent:  d.UserAgent,
		SessionID:  d.SessionID,
		CreatedAt:  time.Now().UTC(),
	}
	if d.OldValues != nil {
		data, err := json.Marshal(d.OldValues)
		if err != nil {
			return nil, err
		}
		e.OldValues = data
	}
	if d.NewValues != nil {
		data, err := json.Marshal(d.NewValues)
		if err != nil {
			return nil, err
		}
		e.NewValues = data
	}
	return e, nil
}

// QueryFilter represents filters for querying the audit trail.
type QueryFilter struct {
	WorkflowID *uuid.UUID
	Event      *Event
	EntityType *string
	ActorID    *string
	StartTime  *time.Time
	EndTime    *time.Time
}
