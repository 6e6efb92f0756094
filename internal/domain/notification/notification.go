package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type represents the notification kind produced by the engine.
type Type string

const (
	TypeApprovalRequired Type = "APPROVAL_REQUIRED"
	TypeEscalated        Type = "ESCALATED"
)

// Channel represents a delivery channel. Delivery itself is external; the
// engine only records which channels the dispatcher should use. SSE is served
// in-process for connected UIs.
type Channel string

const (
	ChannelSSE   Channel = "SSE"
	ChannelEmail Channel = "EMAIL"
	ChannelPush  Channel = "PUSH"
)

// Status represents the dispatch status of a notification request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusDispatched Status = "DISPATCHED"
)

var (
	ErrClientNotFound = errors.New("SSE client not found")
	ErrChannelFull    = errors.New("SSE message channel full")
)

// Request is an outbound notification request consumed by external delivery
// systems.
type Request struct {
	ID             int64           `json:"id"`
	NotificationID uuid.UUID       `json:"notificationId"`
	WorkflowID     uuid.UUID       `json:"workflowId"`
	Type           Type            `json:"type"`
	RecipientIDs   []string        `json:"recipientIds"`
	RecipientRole  string          `json:"recipientRole"`
	Channels       []Channel       `json:"channels"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	DispatchedAt   *time.Time      `json:"dispatchedAt,omitempty"`
}

// NewRequest creates a pending notification request.
func NewRequest(workflowID uuid.UUID, t Type, recipientRole string, recipientIDs []string, payload json.RawMessage) *Request {
	return &Request{
		NotificationID: uuid.New(),
		WorkflowID:     workflowID,
		Type:           t,
		RecipientIDs:   recipientIDs,
		RecipientRole:  recipientRole,
		Channels:       []Channel{ChannelSSE, ChannelEmail},
		Payload:        payload,
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}

// MarkDispatched records external pickup of the request.
func (r *Request) MarkDispatched(now time.Time) {
	r.Status = StatusDispatched
	r.DispatchedAt = &now
}

// SSEClient represents an active SSE connection.
type SSEClient struct {
	ClientID    string
	UserID      string
	Roles       []string
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a new SSE client subscribed for a user and its roles.
func NewSSEClient(clientID, userID string, roles []string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		UserID:      userID,
		Roles:       roles,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel.
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE.
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message.
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Filter represents filters for querying notification requests.
type Filter struct {
	WorkflowID *uuid.UUID
	Type       *Type
	Status     *Status
}
