package delegation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type classifies a delegation grant.
type Type string

const (
	TypeTemporary Type = "TEMPORARY"
	TypeVacation  Type = "VACATION"
	TypeEmergency Type = "EMERGENCY"
)

var (
	ErrNotFound       = errors.New("delegation not found")
	ErrInvalidWindow  = errors.New("delegation startDate must precede endDate")
	ErrAlreadyRevoked = errors.New("delegation already revoked")
)

// Delegation grants one role's approval authority to a principal for a
// bounded time window, optionally capped by invoice amount.
type Delegation struct {
	ID           int64      `json:"id"`
	DelegationID uuid.UUID  `json:"delegationId"`
	FromRoleID   string     `json:"fromRoleId"`
	ToUserID     string     `json:"toUserId"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      time.Time  `json:"endDate"`
	DelegationType Type     `json:"delegationType"`
	Reason       string     `json:"reason,omitempty"`
	MaxAmount    *float64   `json:"maxAmount,omitempty"`
	CreatedBy    string     `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
}

// New builds a delegation, validating the time window.
func New(fromRoleID, toUserID string, start, end time.Time, dtype Type, createdBy string) (*Delegation, error) {
	if !start.Before(end) {
		return nil, ErrInvalidWindow
	}
	if dtype == "" {
		dtype = TypeTemporary
	}
	now := time.Now().UTC()
	return &Delegation{
		DelegationID:   uuid.New(),
		FromRoleID:     fromRoleID,
		ToUserID:       toUserID,
		StartDate:      start,
		EndDate:        end,
		DelegationType: dtype,
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}, nil
}

// ActiveAt reports whether the delegation grants authority at the given
// instant. Authority exists only within [StartDate, EndDate] and only while
// not revoked.
func (d *Delegation) ActiveAt(now time.Time) bool {
	if d.RevokedAt != nil && !d.RevokedAt.After(now) {
		return false
	}
	if now.Before(d.StartDate) {
		return false
	}
	if now.After(d.EndDate) {
		return false
	}
	return true
}

// Covers reports whether the delegation's amount cap admits the invoice
// amount. A nil cap covers any amount; the cap itself is inclusive.
func (d *Delegation) Covers(amount float64) bool {
	return d.MaxAmount == nil || amount <= *d.MaxAmount
}

// Grants combines the window and amount checks.
func (d *Delegation) Grants(userID, roleID string, amount float64, now time.Time) bool {
	return d.ToUserID == userID && d.FromRoleID == roleID && d.ActiveAt(now) && d.Covers(amount)
}

// Revoke ends the delegation immediately.
func (d *Delegation) Revoke(now time.Time) error {
	if d.RevokedAt != nil {
		return ErrAlreadyRevoked
	}
	d.RevokedAt = &now
	return nil
}

// Filter represents filters for querying delegations.
type Filter struct {
	FromRoleID *string
	ToUserID   *string
	ActiveAt   *time.Time
}
